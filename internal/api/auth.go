/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/audit"
	"github.com/netflexisp/netflex-onu-manager/internal/auth"
	"github.com/netflexisp/netflex-onu-manager/internal/models"
	"github.com/netflexisp/netflex-onu-manager/internal/telemetry"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userSummary struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.RoleName `json:"role"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

// handleLogin authenticates an operator and issues a bearer token.
// Unknown username and wrong password fail with the same status and
// message so callers cannot probe for valid accounts.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username_and_password_required")
		return
	}

	var user models.User
	err := a.db.WithContext(r.Context()).Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			telemetry.AuthLoginsTotal.WithLabelValues("failure").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		telemetry.AuthLoginsTotal.WithLabelValues("failure").Inc()
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	token, err := auth.Issue(a.jwtSecret, auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}, a.tokenTTL)
	if err != nil {
		a.logger.Error().Err(err).Msg("token signing failed")
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	telemetry.AuthLoginsTotal.WithLabelValues("success").Inc()

	_ = a.auditSvc.Record(r.Context(), models.AuditActionLogin, audit.EntryFor(user.ID, user.Username, r))

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userSummary{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

// handleAuthCheck echoes the identity embedded in the presented token.
func (a *API) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userSummary{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     models.RoleName(claims.Role),
		},
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current_and_new_password_required")
		return
	}

	var user models.User
	if err := a.db.WithContext(r.Context()).First(&user, claims.UserID).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		writeError(w, http.StatusBadRequest, "current_password_incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash_error")
		return
	}

	err = a.db.WithContext(r.Context()).
		Model(&user).
		Update("password", string(hash)).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	_ = a.auditSvc.Record(r.Context(), models.AuditActionChangePassword, a.auditContext(r))

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
