package domain

// Identity is a signed-in account as seen by the cart.
type Identity struct {
	// Key is the permanent client key. It partitions stored carts and
	// correlates orders across sessions, so it never changes for an account.
	Key   string `json:"key"`
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// ScopeKind distinguishes guest and identity scopes.
type ScopeKind string

const (
	ScopeGuest    ScopeKind = "guest"
	ScopeIdentity ScopeKind = "identity"
)

// Scope is the partition a cart is persisted under.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	// Key is the identity key. Empty for the guest scope.
	Key string `json:"key,omitempty"`
}

// GuestScope returns the anonymous scope.
func GuestScope() Scope { return Scope{Kind: ScopeGuest} }

// IdentityScope returns the scope for the given identity key.
func IdentityScope(key string) Scope { return Scope{Kind: ScopeIdentity, Key: key} }

// IsGuest reports whether s is the anonymous scope.
func (s Scope) IsGuest() bool { return s.Kind != ScopeIdentity }

func (s Scope) String() string {
	if s.IsGuest() {
		return string(ScopeGuest)
	}
	return string(ScopeIdentity) + ":" + s.Key
}
