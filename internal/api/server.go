// Package api exposes the series and analytics services over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"StockPulse/internal/analytics"
	"StockPulse/internal/series"
)

const serviceName = "StockPulse"

// Options configure request validation and CORS.
type Options struct {
	MaxDays         int
	AllowedOrigins  []string
	AllowAllOrigins bool
	Debug           bool
}

// Server holds the HTTP handlers.
type Server struct {
	series    *series.Service
	analytics *analytics.Service
	opts      Options
}

func NewServer(s *series.Service, a *analytics.Service, opts Options) *Server {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 365
	}
	return &Server{series: s, analytics: a, opts: opts}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	if s.opts.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(s.corsOptions()))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/companies", s.handleCompanies)
		r.Get("/data/{symbol}", s.handleSeries)
		r.Get("/summary/{symbol}", s.handleSummary)
		r.Get("/compare", s.handleCompare)
	})
	return r
}

// HTTPServer wraps Routes in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		// A cache miss waits on the provider, bounded by its 30s client timeout.
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   90 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsOptions allows either every origin or the configured list. Credentials
// are only offered to listed origins.
func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Data-Source"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.opts.AllowAllOrigins {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}
