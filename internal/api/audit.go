/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strconv"

	"github.com/netflexisp/netflex-onu-manager/internal/audit"
	"github.com/netflexisp/netflex-onu-manager/internal/auth"
)

// handleAuditList returns the newest audit entries, admin only. An
// optional ?limit= is honored up to the page cap.
func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	limit := audit.MaxLogPage
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = parsed
	}

	logs, err := a.auditSvc.Latest(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleUserStats returns the caller's activity grouped by action.
func (a *API) handleUserStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := a.auditSvc.StatsByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleUserRecent returns the caller's five most recent actions.
func (a *API) handleUserRecent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	logs, err := a.auditSvc.RecentByUser(r.Context(), claims.UserID, 5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
