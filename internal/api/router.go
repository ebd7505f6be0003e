// Package api exposes the HTTP interface: accounts, plays, playbooks and
// direct video uploads.
package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"playbook/internal/auth"
	"playbook/internal/logging"
	"playbook/internal/media"
	"playbook/internal/storage"
	"playbook/internal/store"
)

// Ingester turns a social-media URL into a stored video and removes
// stored videos nothing refers to.
type Ingester interface {
	Ingest(ctx context.Context, sourceURL, keyPrefix string) (*media.UploadResult, error)
	Discard(ctx context.Context, key string) error
}

// Config wires the router's collaborators.
type Config struct {
	Store    *store.Store
	Ingester Ingester
	Issuer   *auth.Issuer

	// UploadsFS and UploadsDir hold direct uploads, served at /uploads.
	UploadsFS  afero.Fs
	UploadsDir string

	TagPolicy   string
	BcryptCost  int
	CORSOrigins []string
	RateLimit   RateLimitConfig
	Logger      logrus.FieldLogger
}

// Server holds handler dependencies.
type Server struct {
	store      *store.Store
	ingester   Ingester
	issuer     *auth.Issuer
	uploads    *storage.Local
	tagPolicy  string
	bcryptCost int
	log        logrus.FieldLogger
	newID      func() string
}

// uploadsPrefix is where direct uploads are served.
const uploadsPrefix = "/uploads"

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	fs := cfg.UploadsFS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	s := &Server{
		store:      cfg.Store,
		ingester:   cfg.Ingester,
		issuer:     cfg.Issuer,
		uploads:    storage.NewLocal(fs, cfg.UploadsDir, uploadsPrefix),
		tagPolicy:  cfg.TagPolicy,
		bcryptCost: cfg.BcryptCost,
		log:        log,
		newID:      func() string { return uuid.New().String() },
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(log))
	r.Use(recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst > 0 {
		r.Use(newRateLimiter(cfg.RateLimit).handler)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	files := http.StripPrefix(uploadsPrefix, http.FileServer(filesOnly{afero.NewHttpFs(fs).Dir(cfg.UploadsDir)}))
	r.Get(uploadsPrefix+"/*", files.ServeHTTP)

	requireAuth := auth.Middleware(cfg.Issuer, cfg.Store, log)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/profile", s.profile)
				r.Post("/update", s.updateProfile)
				r.Post("/update-password", s.updatePassword)
			})
		})

		r.Route("/plays", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.createPlay)
			r.Get("/", s.listPlays)
			r.Get("/{id}", s.getPlay)
		})

		r.Route("/user_playbook", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.savePlay)
			r.Get("/", s.listPlaybook)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.listVideos)
			r.Get("/user/{userId}", s.listUserVideos)
			r.Get("/{videoId}", s.getVideo)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/upload", s.uploadVideo)
				r.Post("/{videoId}/thumbnail", s.uploadThumbnail)
				r.Post("/{videoId}/plays", s.linkVideoPlay)
				r.Put("/{videoId}", s.updateVideo)
				r.Delete("/{videoId}", s.deleteVideo)
			})
		})
	})

	return r
}

// NewHTTPServer wraps handler with the server timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// filesOnly serves regular files and reports directories as missing, so
// upload names cannot be listed.
type filesOnly struct {
	http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
