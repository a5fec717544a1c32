// internal/httpserver/auth.go
//
// Accounts and identity:
//   - signup/login/logout/me handlers (bcrypt hashes, HS256 JWT in a cookie)
//   - optional-auth and require-auth middleware
//   - anonymous cookie identity for guests
//   - claiming anonymous game history when a guest signs up or logs in
//
// Tokens are accepted from the Authorization header (Bearer) or the auth
// cookie; the cookie is the primary path for the browser client.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jlfenwick/wordrow/internal/store"
)

const anonCookieName = "wordrow_anon"

// authUser is the authenticated identity carried in the request context.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

type signupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type authRes struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type gamesMineRes struct {
	Games []store.GameRow `json:"games"`
}

func (s *Server) mountAuthRoutes() {
	s.r.Route("/auth", func(r chi.Router) {
		r.With(s.limit).Post("/signup", s.handleSignup)
		r.With(s.limit).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth()).Get("/me", s.handleMe)
	})
	s.r.With(s.requireAuth()).Get("/games/mine", s.handleGamesMine)
}

// ------------------------------ handlers ------------------------------------

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}
	username := normalizeUsername(req.Username)
	if err := validateSignup(username, req.Password); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	taken, err := s.db.UsernameTaken(ctx, username)
	if err != nil {
		log.Error().Err(err).Msg("check username")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, `{"error":"username taken"}`, http.StatusConflict)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("hash password")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	u := store.User{
		ID:           genID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.InsertUser(ctx, u); err != nil {
		log.Error().Err(err).Msg("insert user")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}

	s.claimAnonGames(ctx, r, u.ID)
	s.issueSession(w, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	u, err := s.db.UserByUsername(ctx, normalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("find user")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	if !checkPassword(u.PasswordHash, req.Password) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	s.claimAnonGames(ctx, r, u.ID)
	s.issueSession(w, *u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	u, err := s.db.UserByID(r.Context(), me.ID)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(userView{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}

func (s *Server) handleGamesMine(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	rows, err := s.db.GamesFor(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Msg("load game history")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(gamesMineRes{Games: rows})
}

// issueSession signs a JWT for the user, sets the auth cookie, and writes
// the user payload.
func (s *Server) issueSession(w http.ResponseWriter, u store.User) {
	token, exp, err := signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, token, exp)
	_ = json.NewEncoder(w).Encode(authRes{
		User:  userView{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt},
		Token: token,
	})
}

// claimAnonGames reassigns the anonymous cookie's game history to the user.
// Best-effort: a failure is logged, never surfaced to the caller.
func (s *Server) claimAnonGames(ctx context.Context, r *http.Request, userID string) {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" || c.Value == userID {
		return
	}
	if err := s.db.ClaimGames(ctx, c.Value, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("claim anonymous games")
	}
}

// ------------------------------ middleware ----------------------------------

// withOptionalAuth decorates the context with the authenticated user when a
// valid token is present. Guests pass through untouched.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				if me, err := parseJWT(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid token and that the user still exists.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerOrCookie(r)
			if tok == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			me, err := parseJWT(tok)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			if _, err := s.db.UserByID(r.Context(), me.ID); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, me)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------ anon identity -------------------------------

// ensureAnonID returns the caller's anonymous ID, minting a cookie on first
// contact. Guests keep their stats and history through this ID.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   60 * 60 * 24 * 365,
	})
	return id
}

// ------------------------------ tokens + cookies ----------------------------

func jwtSecret() []byte {
	return []byte(getEnv("JWT_SECRET", "dev_secret_change_me"))
}

func signJWT(id, username string) (string, time.Time, error) {
	days := envInt("JWT_EXPIRES_DAYS", 14)
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := token.SignedString(jwtSecret())
	return ss, exp, err
}

func parseJWT(tokenStr string) (*authUser, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil, errors.New("invalid token")
	}
	return &authUser{ID: id, Username: username}, nil
}

func setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "wordrow_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "wordrow_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a token from "Authorization: Bearer <token>" or
// the auth cookie, in that order.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "wordrow_token")); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------ validation ----------------------------------

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// genID returns a 22-char URL-safe random identifier.
func genID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
