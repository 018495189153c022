package api

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *APIHandler, sessions *scs.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(sessions.LoadAndSave)    // Cookie sessions backed by Redis

	// Public routes
	r.Post("/signup", h.SignupHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)
	r.Get("/me", h.MeHandler)
	r.Post("/join-now", h.JoinNowHandler)
	r.Post("/signup-free", h.FreeSignupHandler)
	r.Post("/payment-success", h.PaymentSuccessHandler)
	r.Get("/health/db", h.DBHealthHandler)
	r.Get("/health/redis", h.RedisHealthHandler)

	// Chat requires a logged-in member; anonymous visitors get no memory.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireLogin)
		r.Post("/ask-ai", h.AskAIHandler)
		r.Post("/chat/clear", h.ClearChatHandler)
	})

	return r
}
