package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errRateLimited    = errors.New("chat rate limit exceeded")
	errSessionExpired = errors.New("session expired")
	errInvalidToken   = errors.New("invalid session token")
)

// Session is one visitor's conversation. All state is guarded by mu and
// nothing is shared with other sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	// ended flips once, when the session first leaves the store
	ended atomic.Bool

	mu         sync.Mutex
	profile    compass.UserProfile
	transcript compass.Transcript
	limiter    *rate.Limiter
}

func (s *Session) Profile() compass.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) SetProfile(p compass.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

func (s *Session) Transcript() compass.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Chat ranks the catalog for the session's current profile and runs one
// turn of the assistant. ok is false when text was blank; in that case
// nothing is recorded and no rate budget is spent.
func (s *Session) Chat(text string, catalog compass.Catalog) (ex compass.Exchange, t compass.Transcript, ok bool, err error) {
	if strings.TrimSpace(text) == "" {
		return compass.Exchange{}, s.Transcript(), false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limiter.Allow() {
		return compass.Exchange{}, s.transcript, false, errRateLimited
	}

	roommates, err := compass.ComputeRoommateMatches(s.profile, catalog.Roommates)
	if err != nil {
		return compass.Exchange{}, s.transcript, false, fmt.Errorf("rank roommates: %w", err)
	}
	housing, err := compass.ComputeHousingRecommendations(s.profile.Budget, catalog.Housing)
	if err != nil {
		return compass.Exchange{}, s.transcript, false, fmt.Errorf("rank housing: %w", err)
	}

	s.transcript, ex, ok = compass.Converse(s.transcript, text, compass.NewReplyContext(roommates, housing))
	return ex, s.transcript, ok, nil
}

type sessionConfig struct {
	Secret      []byte
	TokenTTL    time.Duration
	IdleTTL     time.Duration
	MaxSessions int
	ChatRate    float64
	ChatBurst   int
}

// sessionStore owns the lifecycle of every session: creation, idle expiry,
// explicit end, and LRU eviction when the store is full.
type sessionStore struct {
	cfg     sessionConfig
	lru     *expirable.LRU[string, *Session]
	log     *zap.Logger
	onEnd   func(id string)
	onEndMu sync.RWMutex
}

func newSessionStore(cfg sessionConfig, log *zap.Logger) *sessionStore {
	st := &sessionStore{cfg: cfg, log: log}
	st.lru = expirable.NewLRU[string, *Session](cfg.MaxSessions, st.evicted, cfg.IdleTTL)
	return st
}

// OnEnd registers a callback run whenever a session leaves the store.
func (st *sessionStore) OnEnd(fn func(id string)) {
	st.onEndMu.Lock()
	defer st.onEndMu.Unlock()
	st.onEnd = fn
}

func (st *sessionStore) evicted(id string, s *Session) {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	st.log.Debug("session ended", zap.String("session_id", id), zap.Duration("age", time.Since(s.CreatedAt)))
	st.onEndMu.RLock()
	fn := st.onEnd
	st.onEndMu.RUnlock()
	if fn != nil {
		fn(id)
	}
}

// Create starts a session with the default profile and returns its token.
func (st *sessionStore) Create() (*Session, string, error) {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		profile:   compass.DefaultUserProfile(),
		limiter:   rate.NewLimiter(rate.Limit(st.cfg.ChatRate), st.cfg.ChatBurst),
	}
	token, err := st.issueToken(s.ID)
	if err != nil {
		return nil, "", err
	}
	st.lru.Add(s.ID, s)
	return s, token, nil
}

// Get returns a live session and restarts its idle timer.
func (st *sessionStore) Get(id string) (*Session, bool) {
	s, ok := st.lru.Get(id)
	if !ok {
		return nil, false
	}
	st.lru.Add(id, s)
	// an End or expiry between Get and Add must not bring the session back
	if s.ended.Load() {
		st.lru.Remove(id)
		return nil, false
	}
	return s, true
}

// End drops a session. It reports whether the session was live.
func (st *sessionStore) End(id string) bool {
	return st.lru.Remove(id)
}

func (st *sessionStore) Len() int {
	return st.lru.Len()
}

func (st *sessionStore) issueToken(sessionID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(st.cfg.TokenTTL).Unix(),
	})
	return token.SignedString(st.cfg.Secret)
}

func (st *sessionStore) parseToken(tokenStr string) (string, bool) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return st.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	id, ok := claims["session_id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// tokenFromRequest reads the Authorization header, falling back to the token
// query parameter for WebSockets (browsers can't set headers there).
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// fromRequest resolves the caller's session. It returns errSessionExpired
// for a valid token whose session is gone, and a nil session with a nil
// error when no token was sent. A token that fails verification gives
// errInvalidToken.
func (st *sessionStore) fromRequest(r *http.Request) (*Session, error) {
	tok := tokenFromRequest(r)
	if tok == "" {
		return nil, nil
	}
	id, ok := st.parseToken(tok)
	if !ok {
		return nil, errInvalidToken
	}
	s, ok := st.Get(id)
	if !ok {
		return nil, errSessionExpired
	}
	return s, nil
}

// requireSession wraps handlers that only make sense inside a session.
func (a *app) requireSession(next func(w http.ResponseWriter, r *http.Request, s *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := a.sessions.fromRequest(r)
		if errors.Is(err, errSessionExpired) {
			writeError(w, http.StatusUnauthorized, codeSessionExpired)
			return
		}
		if err != nil || s == nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized)
			return
		}
		next(w, r, s)
	}
}

// POST /session
func createSessionHandler(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, token, err := a.sessions.Create()
		if err != nil {
			a.log.Error("issue session token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		a.log.Debug("session created", zap.String("session_id", s.ID))
		writeJSON(w, http.StatusCreated, SessionResponse{SessionID: s.ID, Token: token, Profile: s.Profile()})
	}
}

// DELETE /session
func endSessionHandler(a *app) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		a.sessions.End(s.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// GET /profile
func getProfileHandler(a *app) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		writeJSON(w, http.StatusOK, s.Profile())
	})
}

// PUT /profile
func putProfileHandler(a *app) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		var req ProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidJSON)
			return
		}
		p, err := req.apply(s.Profile())
		if err != nil {
			writeError(w, http.StatusBadRequest, profileErrorCode(err))
			return
		}
		s.SetProfile(p)
		writeJSON(w, http.StatusOK, p)
	})
}
