// Package identity resolves the signed-in account behind a request and
// derives its permanent client key.
package identity

import (
	"context"
	"log/slog"
	"sync"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/utafrali/designstudio/internal/domain"
)

// Resolver reports the signed-in identity, or nil for an anonymous session.
type Resolver interface {
	CurrentIdentity(ctx context.Context) *domain.Identity
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Directory records identities in the user directory.
type Directory interface {
	EnsureUser(ctx context.Context, id *domain.Identity) error
}

// TokenResolver resolves the identity carried by one ID token. Verification
// runs at most once; any failure resolves to anonymous. The directory is
// only written through EnsureRecorded.
type TokenResolver struct {
	verifier  TokenVerifier
	directory Directory
	token     string
	logger    *slog.Logger

	once     sync.Once
	identity *domain.Identity

	recordOnce sync.Once
}

// NewTokenResolver creates a resolver for token. directory may be nil.
func NewTokenResolver(verifier TokenVerifier, directory Directory, token string, logger *slog.Logger) *TokenResolver {
	return &TokenResolver{
		verifier:  verifier,
		directory: directory,
		token:     token,
		logger:    logger,
	}
}

// CurrentIdentity verifies the token on first use.
func (r *TokenResolver) CurrentIdentity(ctx context.Context) *domain.Identity {
	r.once.Do(func() {
		r.identity = r.resolve(ctx)
	})
	if r.identity == nil {
		return nil
	}
	id := *r.identity
	return &id
}

// EnsureRecorded resolves the identity and records it in the directory, at
// most once per resolver. Directory failures are logged, not returned. It
// returns the resolved identity, or nil for an anonymous request.
func (r *TokenResolver) EnsureRecorded(ctx context.Context) *domain.Identity {
	id := r.CurrentIdentity(ctx)
	if id == nil || r.directory == nil {
		return id
	}
	r.recordOnce.Do(func() {
		if err := r.directory.EnsureUser(ctx, id); err != nil {
			r.logger.WarnContext(ctx, "failed to record user in directory",
				slog.String("uid", id.UID),
				slog.String("error", err.Error()),
			)
		}
	})
	return id
}

// Presented reports whether a token was supplied at all.
func (r *TokenResolver) Presented() bool {
	return r.token != ""
}

func (r *TokenResolver) resolve(ctx context.Context) *domain.Identity {
	if r.token == "" || r.verifier == nil {
		return nil
	}

	tok, err := r.verifier.VerifyIDToken(ctx, r.token)
	if err != nil {
		r.logger.WarnContext(ctx, "id token rejected", slog.String("error", err.Error()))
		return nil
	}
	if tok == nil || tok.UID == "" {
		return nil
	}

	id := &domain.Identity{
		Key: DeriveClientKey(tok.UID),
		UID: tok.UID,
	}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	return id
}

// StaticResolver always returns the same identity. A nil Identity means
// anonymous.
type StaticResolver struct {
	Identity *domain.Identity
}

// CurrentIdentity returns a copy of the fixed identity.
func (s StaticResolver) CurrentIdentity(context.Context) *domain.Identity {
	if s.Identity == nil {
		return nil
	}
	id := *s.Identity
	return &id
}

// ForUID builds a StaticResolver for an account id, deriving its key.
func ForUID(uid, email string) StaticResolver {
	if uid == "" {
		return StaticResolver{}
	}
	return StaticResolver{Identity: &domain.Identity{Key: DeriveClientKey(uid), UID: uid, Email: email}}
}
