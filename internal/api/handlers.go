// Package api exposes the submission intake over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/intake"
)

// maxBodyBytes bounds an inbound submission body.
const maxBodyBytes = 1 << 20

type API struct {
	service        *intake.Service
	logger         logger.Logger
	requestTimeout time.Duration
}

func NewAPI(service *intake.Service, log logger.Logger, requestTimeout time.Duration) *API {
	return &API{
		service:        service,
		logger:         log.WithFields(map[string]interface{}{"component": "api"}),
		requestTimeout: requestTimeout,
	}
}

// SubmitHandler accepts one application and appends it to its team partition.
func (a *API) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
	defer cancel()

	result, err := a.service.Submit(ctx, body)
	if err != nil {
		a.writeStandardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"submissionId": result.SubmissionID,
	})
}

// CheckIdentifierHandler is the advisory pre-validation check the client
// form calls before the team-specific step.
func (a *API) CheckIdentifierHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id query parameter", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
	defer cancel()

	isUnique, err := a.service.CheckIdentifier(ctx, id)
	if err != nil {
		a.writeStandardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"isUnique": isUnique})
}

// RepairHandler re-runs idempotent provisioning for one team, reconciling a
// degraded (headerless) partition.
func (a *API) RepairHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	slug := r.URL.Query().Get("team")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "missing team query parameter", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
	defer cancel()

	if err := a.service.RepairPartition(ctx, slug); err != nil {
		a.writeStandardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (a *API) writeStandardError(w http.ResponseWriter, err error) {
	stdErr := apperrors.AsStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", map[string]interface{}{
			"errorCode": stdErr.Code,
			"details":   stdErr.Details,
		})
		writeError(w, status, stdErr.Message, stdErr.Details)
		return
	}

	writeError(w, status, stdErr.Message, "")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]interface{}{"error": message}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
