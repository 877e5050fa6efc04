package cart

import "github.com/utafrali/designstudio/internal/domain"

// Default storage key names.
const (
	DefaultIdentityPrefix = "designStudioCart"
	DefaultGuestKey       = "designStudioGuestCart"
)

// Keys maps a scope to the storage key its cart lives under.
type Keys struct {
	// IdentityPrefix is joined to the identity key with an underscore.
	IdentityPrefix string
	Guest          string
}

// DefaultKeys returns the standard key names.
func DefaultKeys() Keys {
	return Keys{IdentityPrefix: DefaultIdentityPrefix, Guest: DefaultGuestKey}
}

// For returns the storage key for scope.
func (k Keys) For(scope domain.Scope) string {
	if scope.IsGuest() {
		return k.Guest
	}
	return k.IdentityPrefix + "_" + scope.Key
}

func (k Keys) withDefaults() Keys {
	if k.IdentityPrefix == "" {
		k.IdentityPrefix = DefaultIdentityPrefix
	}
	if k.Guest == "" {
		k.Guest = DefaultGuestKey
	}
	return k
}

// ForProfile returns keys whose guest slot belongs to a single browser
// profile. Identity keys are unchanged so a signed-in cart follows the user
// across profiles.
func (k Keys) ForProfile(profileID string) Keys {
	k = k.withDefaults()
	if profileID != "" {
		k.Guest = k.Guest + "_" + profileID
	}
	return k
}
