package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/cache"
	"github.com/example/tablebook/internal/platform"
	"github.com/rs/zerolog/log"
)

type loginPage struct {
	Title  string
	Authed bool
	Flash  string
}

type selectPage struct {
	Title       string
	Authed      bool
	Restaurants []platform.Restaurant
	Flash       string
}

type dashboardPage struct {
	Title        string
	Authed       bool
	Flash        string
	NoToken      bool
	Restaurant   platform.Restaurant
	Date         string
	Reservations []platform.Reservation
	Tables       []platform.Table
}

type tablesPage struct {
	Title      string
	Authed     bool
	Flash      string
	Restaurant platform.Restaurant
	Tables     []platform.Table
}

type settingsPage struct {
	Title  string
	Authed bool
	Flash  string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", loginPage{Title: "Staff login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := s.Auth.Authenticate(r.Context(), username, password)
	if err != nil {
		s.render(w, "login.html", loginPage{Title: "Staff login", Flash: "Invalid username or password."})
		return
	}
	sess := auth.Session{UserID: user.ID, RestaurantID: user.DefaultRestaurantID}
	if err := s.Auth.SetSession(w, r, sess); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if sess.RestaurantID == "" {
		rs, err := s.searchRestaurants(r.Context(), platform.SearchQuery{})
		if err != nil {
			log.Error().Err(err).Msg("restaurant listing for selection failed")
		}
		s.render(w, "select_restaurant.html", selectPage{
			Title:       "Choose a restaurant",
			Authed:      true,
			Restaurants: rs,
		})
		return
	}

	page := dashboardPage{
		Title:  "Dashboard",
		Authed: true,
		Flash:  r.URL.Query().Get("msg"),
	}

	rest, err := s.restaurant(r.Context(), sess.RestaurantID)
	if err != nil {
		s.renderNotFound(w, r, err)
		return
	}
	page.Restaurant = rest

	ds := r.URL.Query().Get("date")
	if ds == "" {
		ds = time.Now().Format("2006-01-02")
	}
	date, err := time.ParseInLocation("2006-01-02", ds, time.Local)
	if err != nil {
		date = time.Now()
		ds = date.Format("2006-01-02")
	}
	page.Date = ds

	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		if errors.Is(err, errNoToken) {
			page.NoToken = true
			page.Flash = "Add your platform access token under Settings to manage reservations."
			s.render(w, "dashboard.html", page)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page.Reservations, err = s.reservations(r.Context(), client, sess.RestaurantID, ds, date)
	if err != nil {
		log.Error().Err(err).Msg("reservation listing failed")
		page.Flash = "Could not load reservations from the platform."
	}

	if tables, err := client.ListTables(r.Context(), sess.RestaurantID); err == nil {
		page.Tables = tables
	} else {
		log.Warn().Err(err).Msg("table listing failed")
	}

	s.render(w, "dashboard.html", page)
}

func (s *Server) handleSelectRestaurant(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := strings.TrimSpace(r.FormValue("restaurant_id"))

	// Empty id clears the selection so the chooser is shown again.
	sess.RestaurantID = id
	if err := s.Auth.SetSession(w, r, sess); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if id != "" {
		if err := s.Auth.SetDefaultRestaurant(r.Context(), sess.UserID, id); err != nil {
			log.Warn().Err(err).Msg("persisting default restaurant failed")
		}
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

var reservationActions = map[string]platform.Action{
	"accept":  platform.ActionAccept,
	"cancel":  platform.ActionCancel,
	"checkin": platform.ActionCheckIn,
}

func (s *Server) handleReservationAction(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	action, ok := reservationActions[r.PathValue("action")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.FormValue("date")

	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		s.redirectDashboard(w, r, date, "Platform access token missing.")
		return
	}

	if _, err := client.UpdateReservationStatus(r.Context(), r.PathValue("id"), action); err != nil {
		s.redirectDashboard(w, r, date, actionFailureMessage(err))
		return
	}
	s.Cache.Invalidate(r.Context(), cache.ReservationsKey(sess.RestaurantID, date))
	s.redirectDashboard(w, r, date, "")
}

func (s *Server) handleAssignTable(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.FormValue("date")
	tableID := r.FormValue("table_id")
	if tableID == "" {
		s.redirectDashboard(w, r, date, "Pick a table first.")
		return
	}

	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		s.redirectDashboard(w, r, date, "Platform access token missing.")
		return
	}

	if _, err := client.AssignTable(r.Context(), r.PathValue("id"), tableID); err != nil {
		s.redirectDashboard(w, r, date, actionFailureMessage(err))
		return
	}
	s.Cache.Invalidate(r.Context(), cache.ReservationsKey(sess.RestaurantID, date))
	s.redirectDashboard(w, r, date, "")
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if sess.RestaurantID == "" {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	page := tablesPage{
		Title:  "Tables",
		Authed: true,
		Flash:  r.URL.Query().Get("msg"),
	}

	rest, err := s.restaurant(r.Context(), sess.RestaurantID)
	if err != nil {
		s.renderNotFound(w, r, err)
		return
	}
	page.Restaurant = rest

	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		page.Flash = "Platform access token missing, add it under Settings."
		s.render(w, "tables.html", page)
		return
	}

	page.Tables, err = client.ListTables(r.Context(), sess.RestaurantID)
	if err != nil {
		log.Error().Err(err).Msg("table listing failed")
		page.Flash = "Could not load tables from the platform."
	}
	s.render(w, "tables.html", page)
}

func (s *Server) handleTableCreate(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seats, _ := strconv.Atoi(r.FormValue("seats"))
	form := tableForm{Name: strings.TrimSpace(r.FormValue("name")), Seats: seats}
	if err := checkForm(form); err != nil {
		http.Redirect(w, r, "/dashboard/tables?msg="+url.QueryEscape(err.Error()), http.StatusFound)
		return
	}

	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		http.Redirect(w, r, "/dashboard/tables?msg="+url.QueryEscape("Platform access token missing."), http.StatusFound)
		return
	}
	if _, err := client.CreateTable(r.Context(), sess.RestaurantID, form.Name, form.Seats); err != nil {
		http.Redirect(w, r, "/dashboard/tables?msg="+url.QueryEscape(actionFailureMessage(err)), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/dashboard/tables", http.StatusFound)
}

func (s *Server) handleTableDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	client, err := s.staffClient(r.Context(), sess)
	if err != nil {
		http.Redirect(w, r, "/dashboard/tables?msg="+url.QueryEscape("Platform access token missing."), http.StatusFound)
		return
	}
	if err := client.DeleteTable(r.Context(), r.PathValue("id")); err != nil {
		http.Redirect(w, r, "/dashboard/tables?msg="+url.QueryEscape(actionFailureMessage(err)), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/dashboard/tables", http.StatusFound)
}

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "settings.html", settingsPage{Title: "Settings", Authed: true})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := settingsForm{Token: strings.TrimSpace(r.FormValue("token"))}
	if err := checkForm(form); err != nil {
		s.render(w, "settings.html", settingsPage{Title: "Settings", Authed: true, Flash: err.Error()})
		return
	}
	if err := s.Auth.SetPlatformToken(r.Context(), sess.UserID, form.Token); err != nil {
		if errors.Is(err, auth.ErrSealingDisabled) {
			s.render(w, "settings.html", settingsPage{Title: "Settings", Authed: true,
				Flash: "Token storage is disabled on this install (TOKEN_ENC_KEY not set)."})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "settings.html", settingsPage{Title: "Settings", Authed: true, Flash: "Token saved."})
}

var errNoToken = errors.New("no platform token configured")

func (s *Server) staffClient(ctx context.Context, sess auth.Session) (*platform.Client, error) {
	token, err := s.Auth.PlatformToken(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errNoToken
	}
	return s.Platform.WithToken(token), nil
}

// reservations is a short-TTL read-through so dashboard refreshes don't
// hammer the platform.
func (s *Server) reservations(ctx context.Context, client *platform.Client, restaurantID, ds string, date time.Time) ([]platform.Reservation, error) {
	var out []platform.Reservation
	key := cache.ReservationsKey(restaurantID, ds)
	if s.Cache.GetJSON(ctx, key, &out) {
		return out, nil
	}
	out, err := client.ListReservations(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

func (s *Server) redirectDashboard(w http.ResponseWriter, r *http.Request, date, msg string) {
	target := "/dashboard"
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	if msg != "" {
		q.Set("msg", msg)
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func actionFailureMessage(err error) string {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < 500 {
		return apiErr.Message
	}
	log.Error().Err(err).Msg("platform action failed")
	return "The platform rejected the request, try again."
}
