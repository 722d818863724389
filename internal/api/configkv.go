/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

// handleConfigGet returns the runtime key/value settings. The universal
// OLT password is masked; only its presence is reported.
func (a *API) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	var rows []models.SystemConfig
	if err := a.db.WithContext(r.Context()).Find(&rows).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Key == models.ConfigUniversalPassword && row.Value != "" {
			out[row.Key] = strings.Repeat("*", 8)
			continue
		}
		out[row.Key] = row.Value
	}
	writeJSON(w, http.StatusOK, out)
}

type configSetRequest struct {
	UniversalUsername *string `json:"universal_username"`
	UniversalPassword *string `json:"universal_password"`
}

// handleConfigSet upserts the universal OLT credentials. Keys not
// present in the request are left untouched.
func (a *API) handleConfigSet(w http.ResponseWriter, r *http.Request) {
	var req configSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.UniversalUsername == nil && req.UniversalPassword == nil {
		writeError(w, http.StatusBadRequest, "no_settings_given")
		return
	}

	pairs := map[string]*string{
		models.ConfigUniversalUsername: req.UniversalUsername,
		models.ConfigUniversalPassword: req.UniversalPassword,
	}
	for key, value := range pairs {
		if value == nil {
			continue
		}
		err := a.db.WithContext(r.Context()).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).
			Create(&models.SystemConfig{Key: key, Value: *value}).Error
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	entry := a.auditContext(r)
	entry.Details = "updated universal credentials"
	_ = a.auditSvc.Record(r.Context(), models.AuditActionConfigUpdate, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": "config updated"})
}
