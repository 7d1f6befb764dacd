package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testStore() *Store {
	hashKey := []byte("0123456789abcdef0123456789abcdef")
	blockKey := []byte("fedcba9876543210fedcba9876543210")
	return NewStore(nil, hashKey, blockKey, nil)
}

func sessionCookie(t *testing.T, s *Store, sess Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := s.SetSession(rec, req, sess); err != nil {
		t.Fatalf("SetSession() error: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	s := testStore()
	c := sessionCookie(t, s, Session{UserID: 7, RestaurantID: "r-42"})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(c)

	got, ok := s.GetSession(req)
	if !ok {
		t.Fatal("GetSession() did not recognize its own cookie")
	}
	if got.UserID != 7 || got.RestaurantID != "r-42" {
		t.Errorf("session = %+v", got)
	}
}

func TestGetSessionRejectsTamperedCookie(t *testing.T) {
	s := testStore()
	c := sessionCookie(t, s, Session{UserID: 7})
	c.Value = c.Value[:len(c.Value)-2] + "xx"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	if _, ok := s.GetSession(req); ok {
		t.Error("GetSession() accepted a tampered cookie")
	}
}

func TestRequireStaff(t *testing.T) {
	s := testStore()
	var seen Session
	h := s.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
	}))

	t.Run("anonymousRedirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("status=%d location=%q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("sessionPassesThrough", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(sessionCookie(t, s, Session{UserID: 3, RestaurantID: "r-1"}))
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen.UserID != 3 || seen.RestaurantID != "r-1" {
			t.Errorf("context session = %+v", seen)
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}
