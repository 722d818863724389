/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP/JSON surface of the dashboard: auth,
// simulated ONU lookups, and the admin catalogs.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/audit"
	"github.com/netflexisp/netflex-onu-manager/internal/auth"
	"github.com/netflexisp/netflex-onu-manager/internal/onusim"
)

// API exposes HTTP handlers.
type API struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	sim       *onusim.Simulator
	auditSvc  *audit.Service
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration, sim *onusim.Simulator, auditSvc *audit.Service, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		sim:       sim,
		auditSvc:  auditSvc,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts API routes on the provided router.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/v1/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(a.jwtSecret))

			pr.Get("/auth/check", a.handleAuthCheck)
			pr.Post("/auth/change-password", a.handleChangePassword)

			pr.Route("/onu", func(r chi.Router) {
				r.Post("/locate", a.handleOnuLocate)
				r.Get("/signal/{sn}", a.handleOnuSignal)
				r.Delete("/{sn}", a.handleOnuDelete)
			})

			pr.Route("/user", func(r chi.Router) {
				r.Get("/stats", a.handleUserStats)
				r.Get("/recent", a.handleUserRecent)
			})

			pr.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/users", a.handleUsersList)
				r.Post("/users", a.handleUsersCreate)
				r.Put("/users/{userID}", a.handleUsersUpdate)
				r.Delete("/users/{userID}", a.handleUsersDelete)

				r.Get("/logs", a.handleAuditList)

				r.Get("/olts", a.handleOLTsList)
				r.Post("/olts", a.handleOLTsCreate)
				r.Put("/olts/{oltID}", a.handleOLTsUpdate)
				r.Delete("/olts/{oltID}", a.handleOLTsDelete)

				r.Get("/statuses", a.handleStatusesList)
				r.Post("/statuses", a.handleStatusesCreate)
				r.Put("/statuses/{statusID}", a.handleStatusesUpdate)
				r.Delete("/statuses/{statusID}", a.handleStatusesDelete)

				r.Get("/config", a.handleConfigGet)
				r.Post("/config", a.handleConfigSet)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// auditContext extracts user and request info for audit logging.
func (a *API) auditContext(r *http.Request) audit.Entry {
	entry := audit.Entry{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		entry.UserID = claims.UserID
		entry.Username = claims.Username
	}
	return entry
}
