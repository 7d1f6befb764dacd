package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/secrets"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

// Store manages local staff accounts and the signed session cookie.
type Store struct {
	sc     *securecookie.SecureCookie
	db     *db.DB
	sealer *secrets.Sealer
}

type ctxKey string

const sessionKey ctxKey = "session"

const (
	cookieName = "tablebook_session"
	cookieAge  = 14 * 24 * time.Hour
)

// NewStore wires the account table and cookie codec. sealer may be nil when
// no TOKEN_ENC_KEY is configured; storing platform tokens then fails with
// ErrSealingDisabled.
func NewStore(d *db.DB, hashKey, blockKey []byte, sealer *secrets.Sealer) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cookieAge.Seconds()))
	return &Store{sc: sc, db: d, sealer: sealer}
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSealingDisabled    = errors.New("token storage disabled: TOKEN_ENC_KEY not configured")
)

type User struct {
	ID                  int64
	Username            string
	DefaultRestaurantID string
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.Exec(ctx, `INSERT INTO users(username, password_bcrypt) VALUES ($1,$2)`, username, hash)
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		u    User
		hash string
		rid  *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password_bcrypt, default_restaurant_id FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &hash, &rid)
	if err != nil {
		return User{}, db.WrapNotFound(err)
	}
	if !CheckPassword(hash, password) {
		return User{}, ErrInvalidCredentials
	}
	if rid != nil {
		u.DefaultRestaurantID = *rid
	}
	return u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	var (
		u   User
		rid *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, username, default_restaurant_id FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &rid)
	if err != nil {
		return User{}, db.WrapNotFound(err)
	}
	if rid != nil {
		u.DefaultRestaurantID = *rid
	}
	return u, nil
}

// SetPlatformToken seals and stores the staff member's platform bearer token.
func (s *Store) SetPlatformToken(ctx context.Context, userID int64, token string) error {
	if s.sealer == nil {
		return ErrSealingDisabled
	}
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return err
	}
	return s.db.Exec(ctx, `UPDATE users SET platform_token_enc=$2, updated_at=now() WHERE id=$1`, userID, sealed)
}

// PlatformToken returns the unsealed token, or "" when none is stored.
func (s *Store) PlatformToken(ctx context.Context, userID int64) (string, error) {
	var sealed *string
	err := s.db.QueryRow(ctx, `SELECT platform_token_enc FROM users WHERE id=$1`, userID).Scan(&sealed)
	if err != nil {
		return "", db.WrapNotFound(err)
	}
	if sealed == nil || *sealed == "" {
		return "", nil
	}
	if s.sealer == nil {
		return "", ErrSealingDisabled
	}
	return s.sealer.Open(*sealed)
}

func (s *Store) SetDefaultRestaurant(ctx context.Context, userID int64, restaurantID string) error {
	return s.db.Exec(ctx, `UPDATE users SET default_restaurant_id=$2, updated_at=now() WHERE id=$1`, userID, restaurantID)
}

// Session is the explicit per-request context: who the staff member is and
// which restaurant they are currently working, carried in the cookie rather
// than in any ambient global.
type Session struct {
	UserID       int64
	RestaurantID string
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, sess Session) error {
	encoded, err := s.sc.Encode(cookieName, sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(cookieAge.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := s.sc.Decode(cookieName, c.Value, &sess); err != nil {
		return Session{}, false
	}
	if sess.UserID <= 0 {
		return Session{}, false
	}
	return sess, true
}

// RequireStaff gates dashboard routes behind a valid session.
func (s *Store) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok
}
