/*
Copyright (C) 2026 NetFlex ISP

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/netflexisp/netflex-onu-manager/internal/models"
	"github.com/netflexisp/netflex-onu-manager/internal/onusim"
	"github.com/netflexisp/netflex-onu-manager/internal/telemetry"
)

type locateRequest struct {
	SN string `json:"sn"`
}

// handleOnuLocate runs a simulated lookup for the posted serial number.
// Validation failures are rejected before the simulator runs and leave
// no audit trace.
func (a *API) handleOnuLocate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	a.lookupAndReply(w, r, req.SN, models.AuditActionLocate)
}

// handleOnuSignal re-reads the optical signal report for a serial number
// taken from the path.
func (a *API) handleOnuSignal(w http.ResponseWriter, r *http.Request) {
	a.lookupAndReply(w, r, chi.URLParam(r, "sn"), models.AuditActionSignal)
}

func (a *API) lookupAndReply(w http.ResponseWriter, r *http.Request, sn string, action models.AuditAction) {
	device, err := a.sim.Lookup(r.Context(), sn)
	if err != nil {
		switch {
		case errors.Is(err, onusim.ErrInvalidSerial):
			telemetry.OnuLookupsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, "invalid_serial_number")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away mid-delay; nothing useful to write.
			telemetry.OnuLookupsTotal.WithLabelValues("cancelled").Inc()
		default:
			telemetry.OnuLookupsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "equipment_error")
		}
		return
	}

	telemetry.OnuLookupsTotal.WithLabelValues("success").Inc()

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("sn=%s olt=%s status=%s", device.SN, device.OLT, device.Status)
	_ = a.auditSvc.Record(r.Context(), action, entry)

	writeJSON(w, http.StatusOK, device)
}

// handleOnuDelete acknowledges a delete request. There is no device
// inventory behind the simulator, so this is a documented no-op that
// only leaves an audit trace.
func (a *API) handleOnuDelete(w http.ResponseWriter, r *http.Request) {
	sn := chi.URLParam(r, "sn")
	if len(sn) != onusim.SerialLength {
		writeError(w, http.StatusBadRequest, "invalid_serial_number")
		return
	}

	entry := a.auditContext(r)
	entry.Details = fmt.Sprintf("sn=%s", sn)
	_ = a.auditSvc.Record(r.Context(), models.AuditActionDelete, entry)

	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("ONU %s deleted", sn)})
}
