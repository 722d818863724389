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
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
)

// oltResponse is the catalog entry as shown to operators. Credentials
// never leave the server; only their presence is reported.
type oltResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	IP          string   `json:"ip"`
	Username    *string  `json:"username,omitempty"`
	HasPassword bool     `json:"has_password"`
	Type        string   `json:"type"`
	Actions     []string `json:"actions"`
}

func oltToResponse(o models.OLT) oltResponse {
	return oltResponse{
		ID:          o.ID,
		Name:        o.Name,
		IP:          o.IP,
		Username:    o.Username,
		HasPassword: o.Password != nil && *o.Password != "",
		Type:        o.Type,
		Actions:     o.ActionList(),
	}
}

func (a *API) handleOLTsList(w http.ResponseWriter, r *http.Request) {
	var olts []models.OLT
	if err := a.db.WithContext(r.Context()).Order("id ASC").Find(&olts).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]oltResponse, 0, len(olts))
	for _, o := range olts {
		out = append(out, oltToResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

type oltRequest struct {
	Name     *string  `json:"name"`
	IP       *string  `json:"ip"`
	Username *string  `json:"username"`
	Password *string  `json:"password"`
	Type     *string  `json:"type"`
	Actions  []string `json:"actions"`
}

func (a *API) handleOLTsCreate(w http.ResponseWriter, r *http.Request) {
	var req oltRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == nil || *req.Name == "" || req.IP == nil || *req.IP == "" {
		writeError(w, http.StatusBadRequest, "name_and_ip_required")
		return
	}

	var existing models.OLT
	err := a.db.WithContext(r.Context()).Where("ip = ?", *req.IP).First(&existing).Error
	if err == nil {
		writeError(w, http.StatusBadRequest, "olt_ip_already_exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	olt := models.OLT{
		Name:     *req.Name,
		IP:       *req.IP,
		Username: req.Username,
		Password: req.Password,
	}
	if req.Type != nil && *req.Type != "" {
		olt.Type = *req.Type
	}
	if len(req.Actions) > 0 {
		olt.Actions = strings.Join(req.Actions, ",")
	}

	if err := a.db.WithContext(r.Context()).Create(&olt).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("created olt %s ip=%s", olt.Name, olt.IP)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionOLTCreate, entry)

	writeJSON(w, http.StatusCreated, oltToResponse(olt))
}

func (a *API) handleOLTsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "oltID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_olt_id")
		return
	}

	var req oltRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	var olt models.OLT
	err = a.db.WithContext(r.Context()).First(&olt, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if req.IP != nil && *req.IP != "" && *req.IP != olt.IP {
		var existing models.OLT
		err := a.db.WithContext(r.Context()).Where("ip = ?", *req.IP).First(&existing).Error
		if err == nil {
			writeError(w, http.StatusBadRequest, "olt_ip_already_exists")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		olt.IP = *req.IP
	}
	if req.Name != nil && *req.Name != "" {
		olt.Name = *req.Name
	}
	if req.Username != nil {
		olt.Username = req.Username
	}
	if req.Password != nil {
		// Empty string clears stored credentials.
		if *req.Password == "" {
			olt.Password = nil
		} else {
			olt.Password = req.Password
		}
	}
	if req.Type != nil && *req.Type != "" {
		olt.Type = *req.Type
	}
	if req.Actions != nil {
		olt.Actions = strings.Join(req.Actions, ",")
	}

	if err := a.db.WithContext(r.Context()).Save(&olt).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("updated olt id=%d", olt.ID)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionOLTUpdate, entry)

	writeJSON(w, http.StatusOK, oltToResponse(olt))
}

func (a *API) handleOLTsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "oltID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_olt_id")
		return
	}

	var olt models.OLT
	err = a.db.WithContext(r.Context()).First(&olt, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	if err := a.db.WithContext(r.Context()).Delete(&olt).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("deleted olt %s ip=%s", olt.Name, olt.IP)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionOLTDelete, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": "olt deleted"})
}
