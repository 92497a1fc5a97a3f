package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mpchat/server/internal/services"
	"github.com/mpchat/server/internal/ws"
)

func NewRouter(handlers *Handlers, tokens *services.TokenService, wsHandler *ws.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/api/health", handlers.Health)
	router.Get("/ws", wsHandler.ServeWS)

	router.Post("/api/auth/register", handlers.Register)
	router.Post("/api/auth/login", handlers.Login)
	router.Get("/api/users", handlers.ListUsers)

	router.Group(func(r chi.Router) {
		r.Use(requireAuth(tokens))
		r.Get("/api/messages/chats", handlers.ListChats)
		r.Get("/api/messages/{peerID}", handlers.GetConversation)
		r.Post("/api/messages", handlers.CreateMessage)
		r.Post("/api/messages/{messageID}/read", handlers.MarkRead)
	})

	return router
}
