package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	config "github.com/mwantia/evtrec/internal/config/server"
	"github.com/mwantia/evtrec/internal/http/handler"
	mw "github.com/mwantia/evtrec/internal/http/middleware"
	"github.com/mwantia/evtrec/pkg/log"
)

// defaultMaxRequestBytes caps request bodies when no limit is configured.
const defaultMaxRequestBytes = 512 << 20

func NewRouter(cfg config.HttpServerConfig, tenants handler.Tenants, maxUploadBytes int64, logger log.LoggerService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	if len(cfg.CorsAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CorsAllowedOrigins, cfg.CorsAllowCredentials))
	}
	if cfg.RateLimitPerMinute > 0 {
		r.Use(mw.NewRateLimiter(cfg.RateLimitPerMinute).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	maxRequestBytes := cfg.MaxRequestBytes
	if maxRequestBytes <= 0 {
		maxRequestBytes = defaultMaxRequestBytes
	}

	h := &handler.Handler{
		Tenants:         tenants,
		MaxUploadBytes:  maxUploadBytes,
		MaxRequestBytes: maxRequestBytes,
		Log:             logger,
	}

	r.Route("/api/folders", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)

		r.Route("/{folderID}", func(r chi.Router) {
			r.Delete("/", h.RemoveFolder)

			r.Get("/tags", h.ListTags)
			r.Post("/tags", h.CreateTag)

			r.Get("/events", h.ListEvents)
			r.Post("/events", h.CreateEvent)
			r.Get("/events/{eventID}", h.GetEvent)
			r.Put("/events/{eventID}", h.UpdateEvent)
			r.Post("/events/{eventID}/files", h.LinkFile)
			r.Delete("/event-files/{eventFileID}", h.RemoveEventFile)

			r.Get("/inbox", h.ListInbox)
			r.Post("/inbox", h.UploadInbox)
			r.Get("/files/{name}", h.Download)
		})
	})

	return r
}
