package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// chain wraps the route table in the middleware stack. CORS runs before auth
// so preflight requests succeed without a key.
func (s *Server) chain(next http.Handler) http.Handler {
	return s.recovery(s.observe(s.cors(s.auth(next))))
}

// statusWriter captures the response code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					"panic", rec,
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))
				err := errors.New(errors.CategoryInternal, errors.SeverityError, "internal server error").
					WithContext("path", r.URL.Path)
				s.adapter.WriteErrorResponse(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		d := time.Since(start)
		s.recorder.ObserveHTTPRequest(r.Method, routeLabel(r.URL.Path), sw.status, d)
		s.logger.Info("http request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(sw.status),
			slog.Duration("duration", d),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.CORSOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			s.adapter.WriteErrorResponse(w, r, errors.AuthError("invalid or missing api key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel collapses path parameters so metric label cardinality stays
// bounded.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "jobs", "tasks", "artifacts":
			if parts[i] != "" && parts[i] != "import" {
				parts[i] = ":id"
			}
		}
	}
	return strings.Join(parts, "/")
}
