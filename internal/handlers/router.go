package handlers

import (
	"net/http"
	"strings"

	"factorylink/internal/config"
	"factorylink/internal/middleware"
	"factorylink/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Handler struct {
	cfg      config.Config
	auth     AuthService
	listings ListingService
	requests RequestService
	admin    AdminService
	hub      *websocket.Hub
	log      *zap.Logger
}

func New(cfg config.Config, auth AuthService, listings ListingService, requests RequestService, admin AdminService, hub *websocket.Hub, log *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		listings: listings,
		requests: requests,
		admin:    admin,
		hub:      hub,
		log:      log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	requireAuth := middleware.Auth(h.auth)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.With(requireAuth).Post("/logout", h.Logout)
	})
	router.With(requireAuth).Get("/me", h.Me)
	router.With(requireAuth).Post("/me/password", h.ChangePassword)
	router.With(requireAuth).Get("/me/listings", h.MyListings)
	router.Get("/catalog", h.Catalog)

	router.Route("/listings", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.SearchListings)
		r.Post("/", h.CreateListing)
		r.Get("/markers", h.ListingMarkers)
		r.Get("/{id}", h.GetListing)
		r.Delete("/{id}", h.DeleteListing)
		r.Post("/{id}/image", h.UploadListingImage)
		r.Get("/{id}/request", h.RequestStatus)
		r.Post("/{id}/request", h.CreateRequest)
	})

	router.Route("/requests", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/inbox", h.Inbox)
		r.Get("/outbox", h.Outbox)
		r.Post("/{id}/respond", h.Respond)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin)
		r.Get("/dashboard", h.AdminDashboard)
		r.Get("/accounts", h.AdminAccounts)
		r.Put("/accounts", h.AdminUpdateAccounts)
		r.Post("/accounts/delete", h.AdminDeleteAccounts)
		r.Post("/accounts/{id}/reset-password", h.AdminResetPassword)
		r.Get("/listings", h.AdminListings)
		r.Post("/listings/delete", h.AdminDeleteListings)
	})

	router.Get("/ws/notifications", h.WSNotifications)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
