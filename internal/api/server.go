// Package api exposes the screening engine's HTTP control surface, per
// spec.md §6: catalog sync/stats/lookup, manual screening trigger, and
// conjunction listing.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
	"github.com/Salad109/satellite-conjunction-api/internal/httputil"
	"github.com/Salad109/satellite-conjunction-api/internal/ingest"
	"github.com/Salad109/satellite-conjunction-api/internal/screening"
)

// Ingestor runs one catalog sync cycle on demand.
type Ingestor interface {
	Sync(ctx context.Context) (*ingest.SyncReport, error)
}

// Screener runs one screening pass on demand.
type Screener interface {
	Run(ctx context.Context) (*screening.Summary, error)
}

// Server is the HTTP control surface for the screening engine.
type Server struct {
	catalogStore     catalog.Store
	conjunctionStore conjunction.Store
	ingestor         Ingestor
	screener         Screener
	mux              *http.ServeMux
}

// NewServer constructs a Server. ingestor/screener may be nil if the
// corresponding trigger endpoints should be disabled (e.g. a read-only
// deployment serving only /api/v1/conjunctions).
func NewServer(catalogStore catalog.Store, conjunctionStore conjunction.Store, ingestor Ingestor, screener Screener) *Server {
	return &Server{
		catalogStore:     catalogStore,
		conjunctionStore: conjunctionStore,
		ingestor:         ingestor,
		screener:         screener,
	}
}

// ServeMux returns the server's routed http.ServeMux, building it on
// first call so additional routes can still be registered by a caller
// before it is served.
func (s *Server) ServeMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/api/v1/catalog/sync", s.handleCatalogSync)
	s.mux.HandleFunc("/api/v1/catalog/stats", s.handleCatalogStats)
	s.mux.HandleFunc("/api/v1/catalog/", s.handleCatalogLookup)
	s.mux.HandleFunc("/api/v1/screening/run", s.handleScreeningRun)
	s.mux.HandleFunc("/api/v1/conjunctions", s.handleConjunctions)
	return s.mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration for every
// request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("%s %s %d %vms", r.Method, r.URL.Path, lrw.statusCode, float64(time.Since(start).Nanoseconds())/1e6)
	})
}

// RecoverMiddleware converts a handler panic into a 500 response instead
// of crashing the whole server.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("api: panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				httputil.InternalServerError(w, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCatalogSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.ingestor == nil {
		httputil.InternalServerError(w, "ingestion is not configured on this server")
		return
	}

	report, err := s.ingestor.Sync(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, report)
}

func (s *Server) handleCatalogStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	count, err := s.catalogStore.Count(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, map[string]int64{"catalog_size": count})
}

func (s *Server) handleCatalogLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/catalog/")
	catID, err := strconv.Atoi(idStr)
	if err != nil {
		httputil.BadRequest(w, "catalog number must be an integer")
		return
	}

	sat, err := s.catalogStore.Find(r.Context(), catID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if sat == nil {
		httputil.NotFound(w, "no satellite with that catalog number")
		return
	}

	httputil.WriteJSONOK(w, sat)
}

func (s *Server) handleScreeningRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.screener == nil {
		httputil.InternalServerError(w, "screening is not configured on this server")
		return
	}

	summary, err := s.screener.Run(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, summary)
}

func (s *Server) handleConjunctions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)
	withFormations := r.URL.Query().Get("with_formations") == "true"

	result, err := s.conjunctionStore.GetConjunctions(r.Context(), page, pageSize, withFormations)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, result)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
