package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessiongate/internal/models"
	"github.com/wolfeidau/sessiongate/internal/session"
)

// destroyTimeout bounds the best-effort eviction of an expired session.
const destroyTimeout = 5 * time.Second

// Decision is the verifier's terminal outcome. Deny never tells the caller
// why; the reasons live in the logs.
type Decision struct {
	Authorized bool
	Context    map[string]string
}

// Verifier resolves a request's cookies to an accept/deny decision plus an
// identity context.
type Verifier struct {
	sessions session.Store
}

// NewVerifier creates a verifier over the given session store.
func NewVerifier(sessions session.Store) *Verifier {
	return &Verifier{sessions: sessions}
}

// Verify inspects the request's cookie entries and produces a decision.
// Expired sessions are denied and evicted best-effort.
func (v *Verifier) Verify(ctx context.Context, cookies []string) Decision {
	cookie, ok := sessionCookie(cookies)
	if !ok {
		log.Debug().Msg("no session cookie, deny")
		return deny()
	}

	sess, err := v.sessions.Load(ctx, cookie)
	if err != nil {
		log.Error().Err(err).Msg("failed to load session, deny")
		return deny()
	}
	if sess == nil {
		log.Debug().Msg("no session for cookie, deny")
		return deny()
	}

	var user models.User
	if !sess.Get(models.UserKey, &user) {
		log.Warn().Str("session_id", sess.ID()).Msg("session without user, deny")
		return deny()
	}

	if sess.IsExpired() {
		log.Debug().Str("session_id", sess.ID()).Msg("session expired, deny")
		v.evict(ctx, sess)
		return deny()
	}

	log.Debug().Str("email", user.Email).Msg("session verified, accept")

	return Decision{
		Authorized: true,
		Context:    map[string]string{"email": user.Email},
	}
}

// evict destroys an expired session in the background. Failures are logged,
// never escalated; the deny stands regardless.
func (v *Verifier) evict(ctx context.Context, sess *models.Session) {
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, destroyTimeout)
		defer cancel()

		if err := v.sessions.Destroy(ctx, sess); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID()).Msg("failed to destroy expired session")
		}
	}(context.WithoutCancel(ctx))
}

// sessionCookie finds the session cookie entry and returns its value.
// Entries are raw "name=value" strings; the match is by containment of the
// cookie name and the split is at the first "=".
func sessionCookie(cookies []string) (string, bool) {
	for _, entry := range cookies {
		if !strings.Contains(entry, models.CookieName+"=") {
			continue
		}
		_, value, found := strings.Cut(entry, "=")
		if !found {
			return "", false
		}
		return value, true
	}
	return "", false
}

func deny() Decision {
	return Decision{Authorized: false, Context: map[string]string{}}
}
