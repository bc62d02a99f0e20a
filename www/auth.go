package www

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "bobcat_session"

type sessionStore struct {
	store *sessions.CookieStore
}

func newSessionStore(secret string) *sessionStore {
	var key []byte
	if secret != "" {
		key, _ = base64.StdEncoding.DecodeString(secret)
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   12 * 60 * 60, // one shift
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionStore{store: cs}
}

func (s *sessionStore) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *sessionStore) getOperator(r *http.Request) (name string, ok bool) {
	sess := s.get(r)
	v, exists := sess.Values["operator"]
	if !exists {
		return "", false
	}
	name, ok = v.(string)
	return
}

func (s *sessionStore) setOperator(w http.ResponseWriter, r *http.Request, name string) {
	sess := s.get(r)
	sess.Values["operator"] = name
	sess.Save(r, w)
}

func (s *sessionStore) clear(w http.ResponseWriter, r *http.Request) {
	sess := s.get(r)
	delete(sess.Values, "operator")
	sess.Options.MaxAge = -1
	sess.Save(r, w)
}

func checkToken(token, hash string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// HashToken returns the bcrypt hash to store as web.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// operator resolves the caller: a bearer token matching the configured hash
// or a session opened through /api/login.
func (h *Handlers) operator(r *http.Request) (string, bool) {
	if tok := bearerToken(r); tok != "" {
		return "token", checkToken(tok, h.engine.AppConfig().Web.TokenHash)
	}
	return h.sessions.getOperator(r)
}

func (h *Handlers) operatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := h.operator(r)
		if !ok || name == "" {
			writeError(w, http.StatusUnauthorized, "operator token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withOperator(r.Context(), name)))
	})
}
