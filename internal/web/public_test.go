package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/platform"
)

// fridayOnly is a platform stub serving one restaurant open Fridays 18-22.
func fridayOnly(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/restaurants/r1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "r1",
			"name": "Chez Test",
			"city": "Porto",
			"workHours": [{"day": "FRIDAY", "open": "18:00", "close": "22:00"}]
		}`))
	})
	mux.HandleFunc("POST /api/v1/restaurants/r1/reservations", func(w http.ResponseWriter, r *http.Request) {
		var req platform.ReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode booking payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(platform.Reservation{
			ID:             "res-1",
			RestaurantID:   "r1",
			Name:           req.Name,
			Email:          req.Email,
			StartTime:      req.StartTime,
			AmountOfPeople: req.AmountOfPeople,
			Status:         platform.StatusPending,
		})
	})
	return httptest.NewServer(mux)
}

func newTestServer(t *testing.T, platformURL string) *Server {
	t.Helper()
	hashKey := []byte("0123456789abcdef0123456789abcdef")
	blockKey := []byte("fedcba9876543210fedcba9876543210")
	return &Server{
		Auth:     auth.NewStore(nil, hashKey, blockKey, nil),
		Platform: platform.New(platformURL, "test-key"),
	}
}

// nextWeekday returns the next future date falling on the given weekday.
func nextWeekday(wd time.Weekday) string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func getSlots(t *testing.T, h http.Handler, target string) (int, slotsResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body slotsResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode slots response: %v", err)
		}
	}
	return rec.Code, body
}

func TestSlotsEndpoint(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	t.Run("openDay", func(t *testing.T) {
		code, body := getSlots(t, h, "/restaurants/r1/slots?date="+nextWeekday(time.Friday))
		if code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		want := []string{"18:00", "18:30", "19:00", "19:30", "20:00", "20:30"}
		if !body.Selectable || body.Closed || len(body.Slots) != len(want) {
			t.Fatalf("body = %+v", body)
		}
		for i, s := range want {
			if body.Slots[i] != s {
				t.Errorf("slot[%d] = %q, want %q", i, body.Slots[i], s)
			}
		}
	})

	t.Run("noDateYieldsFallback", func(t *testing.T) {
		code, body := getSlots(t, h, "/restaurants/r1/slots")
		if code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if len(body.Slots) != 9 || body.Slots[0] != "18:00" || body.Slots[8] != "22:00" {
			t.Errorf("fallback slots = %v", body.Slots)
		}
	})

	t.Run("pastDateNotSelectable", func(t *testing.T) {
		code, body := getSlots(t, h, "/restaurants/r1/slots?date=2020-01-03")
		if code != http.StatusOK {
			t.Fatalf("status = %d", code)
		}
		if body.Selectable {
			t.Errorf("past date reported selectable: %+v", body)
		}
	})

	t.Run("malformedDate", func(t *testing.T) {
		code, _ := getSlots(t, h, "/restaurants/r1/slots?date=03-06-2026")
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})
}

func TestSlotsClosedWeekday(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	code, body := getSlots(t, h, "/restaurants/r1/slots?date="+nextWeekday(time.Tuesday))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	// A Tuesday has no working hours: the picker already greys it out, and a
	// direct query reports it unselectable with no slots.
	if body.Selectable {
		t.Errorf("closed weekday reported selectable: %+v", body)
	}
	if len(body.Slots) != 0 {
		t.Errorf("closed weekday returned slots: %v", body.Slots)
	}
}

func TestBookHappyPath(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	form := url.Values{
		"name":       {"Ana Silva"},
		"email":      {"ana@example.com"},
		"date":       {nextWeekday(time.Friday)},
		"time":       {"19:30"},
		"party_size": {"4"},
		"notes":      {"window please"},
	}
	req := httptest.NewRequest(http.MethodPost, "/restaurants/r1/book", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Reservation requested") {
		t.Errorf("expected confirmation page, got: %s", rec.Body.String())
	}
}

func TestBookRejectsBufferedSlot(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	// 21:30 is inside the final hour before the 22:00 close.
	form := url.Values{
		"name":       {"Ana Silva"},
		"email":      {"ana@example.com"},
		"date":       {nextWeekday(time.Friday)},
		"time":       {"21:30"},
		"party_size": {"2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/restaurants/r1/book", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no longer available") {
		t.Error("expected slot rejection message")
	}
}

func TestBookRejectsInvalidEmail(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	form := url.Values{
		"name":       {"Ana Silva"},
		"email":      {"not-an-email"},
		"date":       {nextWeekday(time.Friday)},
		"time":       {"19:00"},
		"party_size": {"2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/restaurants/r1/book", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "email") {
		t.Error("expected email validation message")
	}
}

func TestRestaurantPageOpenDay(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	req := httptest.NewRequest(http.MethodGet, "/restaurants/r1?date="+nextWeekday(time.Friday), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "18:00") || !strings.Contains(body, "20:30") {
		t.Error("expected open-day slots in booking form")
	}
	if strings.Contains(body, "21:30</option>") {
		t.Error("buffered slot offered in booking form")
	}
}

func TestDashboardRequiresLogin(t *testing.T) {
	backend := fridayOnly(t)
	defer backend.Close()
	h := newTestServer(t, backend.URL).Routes()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want redirect", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}
