package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router. Every HTML
// route passes through the session middleware and Guard.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(ui.sessions.Middleware)
		r.Use(ui.Guard)

		r.Get("/", ui.HandleHome)

		// Auth pages are reachable while a reset is pending.
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", ui.HandleLogin)
			r.Post("/login", ui.HandleLoginPost)
			r.Get("/register", ui.HandleRegister)
			r.Post("/register", ui.HandleRegisterPost)
			r.Get("/logout", ui.HandleLogout)
			r.Post("/logout", ui.HandleLogout)
			r.Get("/forgot-password", ui.HandleForgotPassword)
			r.Post("/forgot-password", ui.HandleForgotPasswordPost)
			r.Get("/reset-password/{token}", ui.HandleResetPassword)
			r.Post("/reset-password/{token}", ui.HandleResetPasswordPost)
		})

		// Admin routes (admin role required).
		r.Route("/admin", func(r chi.Router) {
			r.Use(ui.RequireAdmin)
			r.Get("/", ui.HandleAdminDashboard)
			r.Post("/block/{id}", ui.HandleAdminToggleBlock)
			r.Post("/reset-password/{id}", ui.HandleAdminForceReset)
			r.Post("/delete/{id}", ui.HandleAdminDelete)
		})

		r.Route("/characters", func(r chi.Router) {
			r.Get("/", ui.HandleCharacterList)
			r.Get("/{id}", ui.HandleCharacterDetail)
			r.Group(func(r chi.Router) {
				r.Use(ui.RequireAdmin)
				r.Get("/create", ui.HandleCharacterCreate)
				r.Post("/create", ui.HandleCharacterCreatePost)
				r.Get("/edit/{id}", ui.HandleCharacterEdit)
				r.Post("/edit/{id}", ui.HandleCharacterEditPost)
				r.Post("/delete/{id}", ui.HandleCharacterDelete)
			})
		})

		r.Route("/episodes", func(r chi.Router) {
			r.Get("/", ui.HandleEpisodeList)
			r.Get("/{id}", ui.HandleEpisodeDetail)
			r.Group(func(r chi.Router) {
				r.Use(ui.RequireAdmin)
				r.Get("/create", ui.HandleEpisodeCreate)
				r.Post("/create", ui.HandleEpisodeCreatePost)
				r.Get("/edit/{id}", ui.HandleEpisodeEdit)
				r.Post("/edit/{id}", ui.HandleEpisodeEditPost)
				r.Post("/delete/{id}", ui.HandleEpisodeDelete)
			})
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", ui.HandleLocationList)
			r.Get("/{id}", ui.HandleLocationDetail)
			r.Group(func(r chi.Router) {
				r.Use(ui.RequireAdmin)
				r.Get("/create", ui.HandleLocationCreate)
				r.Post("/create", ui.HandleLocationCreatePost)
				r.Get("/edit/{id}", ui.HandleLocationEdit)
				r.Post("/edit/{id}", ui.HandleLocationEditPost)
				r.Post("/delete/{id}", ui.HandleLocationDelete)
			})
		})
	})
}

// StaticHandler returns an http.Handler that serves static files from the given directory.
func StaticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.StripPrefix("/static/", fs)
}
