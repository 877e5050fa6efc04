package identity

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// ClientKeyPrefix starts every permanent client key.
const ClientKeyPrefix = "CL"

// clientKeyNamespace seeds the name-based UUIDs client keys are built from.
var clientKeyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://designstudio/client-key"))

// DeriveClientKey returns the permanent client key for an account id. The
// same uid always yields the same key.
func DeriveClientKey(uid string) string {
	if uid == "" {
		return ""
	}
	id := uuid.NewSHA1(clientKeyNamespace, []byte(uid))
	return ClientKeyPrefix + strings.ToUpper(hex.EncodeToString(id[:]))
}

// GuestProfiles mints the one-time random id that identifies an anonymous
// browser profile. Callers persist the id and present it on later requests.
type GuestProfiles struct{}

// Resolve returns presented if it is a valid profile id. Otherwise it mints
// a new one and reports minted=true so the caller can store it.
func (GuestProfiles) Resolve(presented string) (id string, minted bool) {
	if parsed, err := uuid.Parse(presented); err == nil && parsed.Version() == 4 {
		return parsed.String(), false
	}
	return uuid.NewString(), true
}
