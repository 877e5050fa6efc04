package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/designstudio/internal/domain"
	"github.com/utafrali/designstudio/internal/identity"
	"github.com/utafrali/designstudio/internal/notify"
	"github.com/utafrali/designstudio/pkg/logger"
)

// ProfileCookie carries the guest profile id between requests.
const ProfileCookie = "ds_profile"

const profileCookieMaxAge = 365 * 24 * 60 * 60

type sessionKey struct{}

// session holds the per-request identity state.
type session struct {
	profileID string
	resolver  *identity.TokenResolver
	flash     *notify.Flash
}

func sessionFromContext(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	// Verifier checks bearer tokens. Nil treats every request as a guest.
	Verifier     identity.TokenVerifier
	Directory    identity.Directory
	CookieSecure bool
	Logger       *slog.Logger
}

// Session establishes the browser profile of a request and attaches a lazy
// resolver for its bearer token. The token is only verified when a handler
// asks for the identity. A missing or invalid profile cookie is replaced
// once with a freshly minted id.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	var profiles identity.GuestProfiles
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var presented string
			if c, err := r.Cookie(ProfileCookie); err == nil {
				presented = c.Value
			}
			profileID, minted := profiles.Resolve(presented)
			if minted {
				http.SetCookie(w, &http.Cookie{
					Name:     ProfileCookie,
					Value:    profileID,
					Path:     "/",
					MaxAge:   profileCookieMaxAge,
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sess := &session{
				profileID: profileID,
				resolver:  identity.NewTokenResolver(cfg.Verifier, cfg.Directory, bearerToken(r), cfg.Logger),
				flash:     notify.NewFlash(),
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionKey{}, sess)
			ctx = notify.WithFlash(ctx, sess.flash)
			ctx = logger.WithProfileID(ctx, profileID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *session) currentIdentity(r *http.Request) *domain.Identity {
	if s == nil {
		return nil
	}
	return s.resolver.CurrentIdentity(r.Context())
}

// recordedIdentity resolves the identity and makes sure the user directory
// knows it. Only operations that act on the account call it.
func (s *session) recordedIdentity(r *http.Request) *domain.Identity {
	if s == nil {
		return nil
	}
	return s.resolver.EnsureRecorded(r.Context())
}

func notifyFlash(r *http.Request) *notify.Flash {
	if s := sessionFromContext(r.Context()); s != nil {
		return s.flash
	}
	return notify.FlashFromContext(r.Context())
}
