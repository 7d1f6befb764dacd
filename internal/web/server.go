package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/cache"
	"github.com/example/tablebook/internal/platform"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html static/*
var fs embed.FS

type Server struct {
	Auth     *auth.Store
	Platform *platform.Client
	Cache    *cache.Cache

	BaseURL string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	// public: browse + book
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /restaurants/{id}", s.handleRestaurant)
	mux.HandleFunc("GET /restaurants/{id}/slots", s.handleSlots)
	mux.HandleFunc("POST /restaurants/{id}/book", s.handleBook)

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	// staff dashboard
	staff := func(h http.HandlerFunc) http.Handler { return s.Auth.RequireStaff(h) }
	mux.Handle("GET /dashboard", staff(s.handleDashboard))
	mux.Handle("POST /dashboard/select", staff(s.handleSelectRestaurant))
	mux.Handle("POST /reservations/{id}/{action}", staff(s.handleReservationAction))
	mux.Handle("POST /reservations/{id}/table", staff(s.handleAssignTable))
	mux.Handle("GET /dashboard/tables", staff(s.handleTables))
	mux.Handle("POST /dashboard/tables", staff(s.handleTableCreate))
	mux.Handle("POST /dashboard/tables/{id}/delete", staff(s.handleTableDelete))
	mux.Handle("GET /dashboard/settings", staff(s.handleSettingsForm))
	mux.Handle("POST /dashboard/settings", staff(s.handleSettings))

	return requestLog(mux)
}

// requestLog tags every request with an id and logs the outcome.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		"templates/"+name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
