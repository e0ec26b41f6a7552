// Segmentus - Customer Segmentation and Cluster Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmentus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/segmentus/internal/auth"
	"github.com/tomtom215/segmentus/internal/authz"
	"github.com/tomtom215/segmentus/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil chiMiddleware uses the defaults.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, authzMiddleware *authz.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		auth:          authMiddleware,
		authz:         authzMiddleware,
		chiMiddleware: chiMW,
	}
}

// SetupChi builds the complete route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	allow := router.authz.Authorize

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SecurityHeaders)

		// ========================
		// Health Endpoints
		// ========================
		r.Route("/health", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitHealth())
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		// ========================
		// Authentication Endpoints
		// ========================
		r.Route("/auth", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAuth())
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(router.auth.Authenticate).Post("/logout", h.Logout)
		})

		// ========================
		// Authenticated Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.auth.Authenticate)

			r.Route("/model", func(r chi.Router) {
				r.With(router.chiMiddleware.RateLimitTrain(), allow(authz.ObjModel, authz.ActTrain)).Post("/train", h.TrainModel)
				r.With(allow(authz.ObjModel, authz.ActPredict)).Post("/predict", h.Predict)
				r.With(allow(authz.ObjModel, authz.ActRead)).Get("/clusters", h.GetClusters)
				r.With(allow(authz.ObjModel, authz.ActRead)).Get("/elbow", h.GetElbowData)
				r.With(allow(authz.ObjModel, authz.ActRead)).Get("/info", h.GetModelInfo)
			})

			r.With(allow(authz.ObjHistory, authz.ActRead)).Get("/history", h.GetHistory)

			r.Route("/charts", func(r chi.Router) {
				r.Use(allow(authz.ObjCharts, authz.ActRead))
				r.Use(middleware.Compression)
				r.Get("/clusters", h.GetClusterCharts)
				r.Get("/elbow", h.GetElbowChart)
				r.Get("/{name}.html", h.GetChartHTML)
			})

			r.Route("/users/me", func(r chi.Router) {
				r.With(allow(authz.ObjAccount, authz.ActRead)).Get("/profile", h.GetMyProfile)
				r.With(allow(authz.ObjAccount, authz.ActWrite)).Put("/", h.UpdateMe)
				r.With(allow(authz.ObjAccount, authz.ActDelete)).Delete("/", h.DeleteMe)
			})

			r.Route("/profiles", func(r chi.Router) {
				r.With(allow(authz.ObjProfiles, authz.ActWrite)).Post("/", h.CreateProfile)
				r.With(allow(authz.ObjProfiles, authz.ActRead)).Get("/", h.ListProfiles)
				r.With(allow(authz.ObjProfiles, authz.ActRead)).Get("/{id}", h.GetProfile)
				r.With(allow(authz.ObjProfiles, authz.ActWrite)).Put("/{id}", h.UpdateProfile)
				r.With(allow(authz.ObjProfiles, authz.ActDelete)).Delete("/{id}", h.DeleteProfile)
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(allow(authz.ObjUsers, authz.ActRead)).Get("/users", h.ListUsers)
				r.With(allow(authz.ObjUsers, authz.ActRead)).Get("/users/{id}", h.GetUser)
				r.With(allow(authz.ObjUsers, authz.ActWrite)).Put("/users/{id}/role", h.UpdateUserRole)
				r.With(allow(authz.ObjUsers, authz.ActWrite)).Put("/users/{id}/toggle-active", h.ToggleUserActive)
				r.With(allow(authz.ObjUsers, authz.ActDelete)).Delete("/users/{id}", h.DeleteUser)
				r.With(allow(authz.ObjStats, authz.ActRead)).Get("/stats", h.GetStats)
			})

			r.With(router.chiMiddleware.RateLimitWebSocket(), allow(authz.ObjEvents, authz.ActRead)).Get("/ws", h.WebSocket)
		})
	})

	return r
}
