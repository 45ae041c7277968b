package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router, requestTimeout time.Duration) {
	r.Get("/health", h.HealthHandler)

	r.Route("/v1", func(r chi.Router) {
		// websocket sessions outlive any request timeout
		r.Get("/ws/{code}/{playerID}", h.ServeWs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", h.CreateRoom)
				r.Get("/{code}", h.GetRoom)
				r.Get("/{code}/exists", h.RoomExists)
				r.Get("/{code}/history", h.RoomHistory)
				r.Post("/{code}/join", h.JoinRoom)
				r.Delete("/{code}/leave/{playerID}", h.LeaveRoom)
			})

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", h.SystemQuestions)
				r.Post("/", h.CreateQuestion)
				r.Get("/room/{code}", h.RoomQuestions)
				r.Get("/custom/{code}", h.CustomQuestions)
				r.Delete("/{id}", h.DeleteQuestion)
			})

			// Secure routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)

				r.Post("/questions", h.AdminCreateQuestion)
				r.Get("/health", h.HealthHandler)
			})
		})
	})
}

func (h *Handler) InitAuth(secret string) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
}
