/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/auth"
	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

func (a *API) handleUsersList(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := a.db.WithContext(r.Context()).Order("id ASC").Find(&users).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.RoleName `json:"role"`
}

func (a *API) handleUsersCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username_and_password_required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleTech
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	var existing models.User
	err := a.db.WithContext(r.Context()).Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		writeError(w, http.StatusBadRequest, "user_already_exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hash_error")
		return
	}

	user := models.User{Username: req.Username, Password: string(hash), Role: req.Role}
	if err := a.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("created user %s role=%s", user.Username, user.Role)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionUserCreate, entry)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user created",
		"user":    userSummary{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

type updateUserRequest struct {
	Username *string          `json:"username"`
	Password *string          `json:"password"`
	Role     *models.RoleName `json:"role"`
}

func (a *API) handleUsersUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	var user models.User
	err = a.db.WithContext(r.Context()).First(&user, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	updates := map[string]any{}

	if req.Username != nil && *req.Username != "" && *req.Username != user.Username {
		var existing models.User
		err := a.db.WithContext(r.Context()).Where("username = ?", *req.Username).First(&existing).Error
		if err == nil {
			writeError(w, http.StatusBadRequest, "user_already_exists")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		updates["username"] = *req.Username
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "hash_error")
			return
		}
		updates["password"] = string(hash)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		updates["role"] = *req.Role
	}

	if len(updates) > 0 {
		if err := a.db.WithContext(r.Context()).Model(&user).Updates(updates).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("updated user id=%d", user.ID)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionUserUpdate, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

func (a *API) handleUsersDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.UserID == uint(id) {
		writeError(w, http.StatusBadRequest, "cannot_delete_own_account")
		return
	}

	var user models.User
	err = a.db.WithContext(r.Context()).First(&user, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := a.db.WithContext(r.Context()).Delete(&user).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("deleted user %s id=%d", user.Username, user.ID)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionUserDelete, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
