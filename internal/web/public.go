package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/tablebook/internal/cache"
	"github.com/example/tablebook/internal/platform"
	"github.com/example/tablebook/internal/schedule"
	"github.com/rs/zerolog/log"
)

type homePage struct {
	Title       string
	Authed      bool
	Query       string
	City        string
	Restaurants []platform.Restaurant
	Flash       string
}

type restaurantPage struct {
	Title      string
	Authed     bool
	Restaurant platform.Restaurant

	// HoursOK is false when the platform returned a schedule the engine
	// refuses (malformed time, duplicate day); booking is then disabled.
	HoursOK bool
	Date    string
	NoDate  bool
	Closed  bool
	Slots   []string

	Form  bookingForm
	Flash string
}

type confirmPage struct {
	Title       string
	Authed      bool
	Flash       string
	Restaurant  platform.Restaurant
	Reservation platform.Reservation
	When        string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	q := platform.SearchQuery{
		Text: strings.TrimSpace(r.URL.Query().Get("q")),
		City: strings.TrimSpace(r.URL.Query().Get("city")),
	}

	page := homePage{
		Title:  "Restaurants",
		Authed: s.authed(r),
		Query:  q.Text,
		City:   q.City,
	}

	rs, err := s.searchRestaurants(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("restaurant search failed")
		page.Flash = "Could not load restaurants right now, please try again."
	}
	page.Restaurants = rs
	s.render(w, "home.html", page)
}

func (s *Server) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	s.renderRestaurant(w, r, r.PathValue("id"), "", bookingForm{PartySize: 2})
}

func (s *Server) renderRestaurant(w http.ResponseWriter, r *http.Request, id, flash string, form bookingForm) {
	rest, err := s.restaurant(r.Context(), id)
	if err != nil {
		s.renderNotFound(w, r, err)
		return
	}

	page := restaurantPage{
		Title:      rest.Name,
		Authed:     s.authed(r),
		Restaurant: rest,
		Form:       form,
		Flash:      flash,
	}

	sched, err := schedule.ParseSchedule(rest.WorkHours)
	if err != nil {
		// Degraded record from the platform; keep the page but offer no
		// booking rather than guessing at hours.
		log.Warn().Err(err).Str("restaurant", id).Msg("unusable work hours")
		s.render(w, "restaurant.html", page)
		return
	}
	page.HoursOK = true

	date, ok := selectedDate(r.URL.Query().Get("date"), sched)
	if form.Date != "" {
		if d, dok := selectedDate(form.Date, sched); dok {
			date, ok = d, true
		}
	}
	if !ok && (r.URL.Query().Get("date") != "" || form.Date != "") {
		if page.Flash == "" {
			page.Flash = "That date is not available for booking."
		}
	}

	if date.IsZero() {
		page.NoDate = true
		page.Slots = schedule.AvailableSlots(time.Time{}, sched)
	} else {
		page.Date = date.Format("2006-01-02")
		page.Form.Date = page.Date
		page.Slots = schedule.AvailableSlots(date, sched)
		if _, open := sched.ForDay(schedule.WeekdayOf(date)); !open {
			page.Closed = true
		}
	}

	s.render(w, "restaurant.html", page)
}

// handleSlots feeds the date picker: the booking form re-fetches this on
// every date change.
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	rest, err := s.restaurant(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}
	sched, err := schedule.ParseSchedule(rest.WorkHours)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "working hours unavailable"})
		return
	}

	ds := r.URL.Query().Get("date")
	var date time.Time
	if ds != "" {
		d, err := time.ParseInLocation("2006-01-02", ds, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		if !schedule.IsDateSelectable(d, time.Now(), sched) {
			writeJSON(w, http.StatusOK, slotsResponse{Date: ds, Selectable: false})
			return
		}
		date = d
	}

	slots := schedule.AvailableSlots(date, sched)
	if slots == nil {
		slots = []string{}
	}
	closed := false
	if !date.IsZero() {
		_, open := sched.ForDay(schedule.WeekdayOf(date))
		closed = !open
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		Date:       ds,
		Selectable: true,
		Closed:     closed,
		Slots:      slots,
	})
}

type slotsResponse struct {
	Date       string   `json:"date,omitempty"`
	Selectable bool     `json:"selectable"`
	Closed     bool     `json:"closed"`
	Slots      []string `json:"slots"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	partySize, _ := strconv.Atoi(r.FormValue("party_size"))
	form := bookingForm{
		Name:      strings.TrimSpace(r.FormValue("name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Date:      strings.TrimSpace(r.FormValue("date")),
		Time:      strings.TrimSpace(r.FormValue("time")),
		PartySize: partySize,
		Notes:     strings.TrimSpace(r.FormValue("notes")),
	}
	if err := checkForm(form); err != nil {
		s.renderRestaurant(w, r, id, "Check the form: "+err.Error(), form)
		return
	}

	rest, err := s.restaurant(r.Context(), id)
	if err != nil {
		s.renderNotFound(w, r, err)
		return
	}
	sched, err := schedule.ParseSchedule(rest.WorkHours)
	if err != nil {
		s.renderRestaurant(w, r, id, "This restaurant cannot take online bookings right now.", form)
		return
	}

	date, _ := time.ParseInLocation("2006-01-02", form.Date, time.Local)
	if !schedule.IsDateSelectable(date, time.Now(), sched) {
		s.renderRestaurant(w, r, id, "That date is not available for booking.", form)
		return
	}
	if !containsSlot(schedule.AvailableSlots(date, sched), form.Time) {
		s.renderRestaurant(w, r, id, "That time is no longer available, pick another slot.", form)
		return
	}

	tod, err := schedule.ParseTimeOfDay(form.Time)
	if err != nil {
		s.renderRestaurant(w, r, id, "That time is not valid.", form)
		return
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, time.Local)

	res, err := s.Platform.CreateReservation(r.Context(), id, platform.ReservationRequest{
		Name:           form.Name,
		Email:          form.Email,
		StartTime:      start,
		AmountOfPeople: form.PartySize,
		Notes:          form.Notes,
	})
	if err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			s.renderRestaurant(w, r, id, "Booking failed: "+apiErr.Message, form)
			return
		}
		log.Error().Err(err).Str("restaurant", id).Msg("reservation creation failed")
		s.renderRestaurant(w, r, id, "Booking failed, please try again.", form)
		return
	}

	s.Cache.Invalidate(r.Context(), cache.ReservationsKey(id, form.Date))

	s.render(w, "confirm.html", confirmPage{
		Title:       "Reservation requested",
		Authed:      s.authed(r),
		Restaurant:  rest,
		Reservation: res,
		When:        start.Format("Monday, 2 January 2006 at 15:04"),
	})
}

// selectedDate parses and screens a user-picked date. Returns the zero time
// when the value is absent, malformed, in the past, or on a day the
// restaurant keeps no hours.
func selectedDate(ds string, sched schedule.Schedule) (time.Time, bool) {
	if ds == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", ds, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	if !schedule.IsDateSelectable(d, time.Now(), sched) {
		return time.Time{}, false
	}
	return d, true
}

func containsSlot(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func (s *Server) authed(r *http.Request) bool {
	_, ok := s.Auth.GetSession(r)
	return ok
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		http.NotFound(w, r)
		return
	}
	log.Error().Err(err).Msg("restaurant lookup failed")
	http.Error(w, "upstream error", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// restaurant is a cache read-through for a single record.
func (s *Server) restaurant(ctx context.Context, id string) (platform.Restaurant, error) {
	var rest platform.Restaurant
	key := cache.RestaurantKey(id)
	if s.Cache.GetJSON(ctx, key, &rest) {
		return rest, nil
	}
	rest, err := s.Platform.GetRestaurant(ctx, id)
	if err != nil {
		return platform.Restaurant{}, err
	}
	s.Cache.SetJSON(ctx, key, rest)
	return rest, nil
}

func (s *Server) searchRestaurants(ctx context.Context, q platform.SearchQuery) ([]platform.Restaurant, error) {
	var rs []platform.Restaurant
	key := cache.SearchKey(q.Text, q.City)
	if s.Cache.GetJSON(ctx, key, &rs) {
		return rs, nil
	}
	rs, err := s.Platform.SearchRestaurants(ctx, q)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, key, rs)
	return rs, nil
}
