package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	authmw "github.com/mind-engage/ielts-studio/internal/auth/middleware"
	"github.com/mind-engage/ielts-studio/internal/editor"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/rbac"
	"github.com/mind-engage/ielts-studio/internal/storage"
)

type Deps struct {
	Store  passage.Store
	Editor *editor.Manager
	Blobs  storage.BlobStore
	Events EventLister // nil disables history

	Auth  *authmw.AuthService
	Login authmw.LoginOptions

	Log          zerolog.Logger
	CORSOrigins  []string
	PublicURL    string // external base URL used in asset links
	MaxAudioSize int64
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(hlog.NewHandler(d.Log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	}))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Login))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(rbac.RequireAny(rbac.PassageView, rbac.PassageEdit)).
			Post("/zones/analyze", AnalyzeZonesHandler())

		pr.Route("/passages", func(pr chi.Router) {
			pr.With(rbac.Require(rbac.PassageView)).Get("/", ListPassagesHandler(d.Store))
			pr.With(rbac.Require(rbac.PassageEdit)).Post("/", CreatePassageHandler(d.Store))

			pr.Route("/{passageID}", func(pr chi.Router) {
				pr.With(rbac.Require(rbac.PassageView)).Get("/", GetPassageHandler(d.Store))
				pr.With(rbac.Require(rbac.PassageEdit)).Put("/", UpdatePassageHandler(d.Store))
				pr.With(rbac.Require(rbac.PassageDelete)).Delete("/", DeletePassageHandler(d.Store))
				pr.With(rbac.Require(rbac.PassageView)).Get("/segments", PassageSegmentsHandler(d.Store))
				pr.With(rbac.Require(rbac.PassageView)).Get("/zones", PassageZonesHandler(d.Store))
				pr.With(rbac.Require(rbac.PassageView)).Get("/events", PassageEventsHandler(d.Events))
				pr.With(rbac.Require(rbac.SessionOpen)).Post("/sessions", OpenSessionHandler(d.Editor))
				if d.Blobs != nil {
					pr.With(rbac.Require(rbac.PassageEdit)).Post("/audio", UploadAudioHandler(d.Store, d.Blobs, d.MaxAudioSize, d.PublicURL))
				}
			})
		})

		pr.Route("/sessions/{sessionID}", func(sr chi.Router) {
			sr.Use(rbac.Require(rbac.SessionEdit))
			sr.Get("/", GetSessionHandler(d.Editor))
			sr.Delete("/", CloseSessionHandler(d.Editor))
			sr.Put("/content", SetContentHandler(d.Editor))
			sr.Post("/zones", AddZoneHandler(d.Editor))
			sr.Delete("/zones/{zoneID}", RemoveZoneHandler(d.Editor))
			sr.Post("/tokens", InsertTokenHandler(d.Editor))
			sr.Get("/segments", SessionSegmentsHandler(d.Editor))
			sr.Post("/save", SaveSessionHandler(d.Editor))
		})

		if d.Blobs != nil {
			pr.With(rbac.Require(rbac.PassageView)).Route("/assets", func(ar chi.Router) {
				MountAssets(ar, d.Blobs)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	return r
}
