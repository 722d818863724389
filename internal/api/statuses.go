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
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

func (a *API) handleStatusesList(w http.ResponseWriter, r *http.Request) {
	var statuses []models.StatusDescription
	if err := a.db.WithContext(r.Context()).Order("id ASC").Find(&statuses).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

type statusRequest struct {
	StatusCode  *string `json:"status_code"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

func (a *API) handleStatusesCreate(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.StatusCode == nil || *req.StatusCode == "" || req.Description == nil || *req.Description == "" {
		writeError(w, http.StatusBadRequest, "status_code_and_description_required")
		return
	}

	var existing models.StatusDescription
	err := a.db.WithContext(r.Context()).Where("status_code = ?", *req.StatusCode).First(&existing).Error
	if err == nil {
		writeError(w, http.StatusBadRequest, "status_code_already_exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	status := models.StatusDescription{
		StatusCode:  *req.StatusCode,
		Description: *req.Description,
	}
	if req.Color != nil && *req.Color != "" {
		status.Color = *req.Color
	}

	if err := a.db.WithContext(r.Context()).Create(&status).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("created status %s", status.StatusCode)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionStatusCreate, entry)

	writeJSON(w, http.StatusCreated, status)
}

func (a *API) handleStatusesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "statusID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status_id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	var status models.StatusDescription
	err = a.db.WithContext(r.Context()).First(&status, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if req.StatusCode != nil && *req.StatusCode != "" && *req.StatusCode != status.StatusCode {
		var existing models.StatusDescription
		err := a.db.WithContext(r.Context()).Where("status_code = ?", *req.StatusCode).First(&existing).Error
		if err == nil {
			writeError(w, http.StatusBadRequest, "status_code_already_exists")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		status.StatusCode = *req.StatusCode
	}
	if req.Description != nil && *req.Description != "" {
		status.Description = *req.Description
	}
	if req.Color != nil && *req.Color != "" {
		status.Color = *req.Color
	}

	if err := a.db.WithContext(r.Context()).Save(&status).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("updated status id=%d", status.ID)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionStatusUpdate, entry)

	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleStatusesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "statusID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status_id")
		return
	}

	var status models.StatusDescription
	err = a.db.WithContext(r.Context()).First(&status, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := a.db.WithContext(r.Context()).Delete(&status).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("deleted status %s", status.StatusCode)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionStatusDelete, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": "status deleted"})
}
