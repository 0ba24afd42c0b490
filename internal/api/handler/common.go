// Package handler implements the JSON API over a console session.
package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/validation"
	"github.com/go-faster/errors"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondStandardError writes a StandardErrorResponse.
func respondStandardError(w http.ResponseWriter, status int, code, message, field string, details map[string]any) {
	respondJSON(w, status, &domain.StandardErrorResponse{
		Error: domain.StandardError{
			Code:    code,
			Message: message,
			Field:   field,
			Details: details,
		},
	})
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondStandardError(w, status, code, message, "", nil)
}

// respondValidationErrors writes a JSON response for multiple validation errors.
func respondValidationErrors(w http.ResponseWriter, errs validation.ValidationErrors) {
	first := ""
	if len(errs) > 0 {
		first = errs[0].Field
	}
	respondStandardError(w, http.StatusBadRequest, domain.ErrCodeValidationError, errs.Error(), first,
		map[string]any{"errors": errs})
}

// statusOf maps an error to its HTTP status and error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, domain.ErrCodePermissionDenied
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnknownModule),
		errors.Is(err, domain.ErrTabNotOpen),
		errors.Is(err, domain.ErrUnknownAction):
		return http.StatusNotFound, domain.ErrCodeResourceNotFound
	case errors.Is(err, domain.ErrNoActiveTab),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, domain.ErrNotConfirmed):
		return http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed
	case errors.Is(err, domain.ErrPreconditionFailed),
		errors.Is(err, domain.ErrStaleResponse),
		errors.Is(err, domain.ErrCardUnmounted):
		return http.StatusConflict, domain.ErrCodePreconditionFailed
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.ErrCodeInvalidInput
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrApplication):
		return http.StatusBadGateway, domain.ErrCodeGatewayFailed
	}
	return http.StatusInternalServerError, domain.ErrCodeInternalError
}

// handleError converts domain errors to HTTP errors. A notice produced
// alongside the error travels in the details.
func handleError(w http.ResponseWriter, err error, notice *domain.Notice) {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) && notice == nil {
		respondValidationErrors(w, verrs)
		return
	}

	status, code := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	var details map[string]any
	if notice != nil {
		details = map[string]any{"notice": notice}
	}
	respondStandardError(w, status, code, message, "", details)
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(domain.ErrInvalidInput, "decoding body: %v", err)
	}
	return nil
}

// respondDownload streams an export as an attachment.
func respondDownload(w http.ResponseWriter, d *export.Download) {
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Body)
}
