// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/estatemap/internal/analytics"
	"github.com/tomtom215/estatemap/internal/artifacts"
	"github.com/tomtom215/estatemap/internal/catalog"
	"github.com/tomtom215/estatemap/internal/database"
	"github.com/tomtom215/estatemap/internal/logging"
	"github.com/tomtom215/estatemap/internal/predict"
	"github.com/tomtom215/estatemap/internal/recommend"
)

// errorStatus maps a service error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrFeatureUnavailable),
		errors.Is(err, analytics.ErrNotLoaded),
		errors.Is(err, database.ErrNotIngested),
		errors.Is(err, artifacts.ErrMissingArtifact),
		errors.Is(err, artifacts.ErrExtractionFailed),
		errors.Is(err, artifacts.ErrMalformed),
		errors.Is(err, artifacts.ErrIndexMisaligned):
		return http.StatusServiceUnavailable, ErrCodeArtifactUnavailable
	case errors.Is(err, predict.ErrInferenceFailed):
		return http.StatusBadGateway, ErrCodeInferenceFailed
	case errors.Is(err, recommend.ErrEntityNotFound),
		errors.Is(err, recommend.ErrLocationNotFound),
		errors.Is(err, database.ErrSectorNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, recommend.ErrInvalidArgument),
		errors.Is(err, analytics.ErrInvalidArgument):
		return http.StatusBadRequest, ErrCodeValidationFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// respondServiceError writes err with its mapped status. Internal errors
// are logged and their text withheld from the client.
func respondServiceError(rw *ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
		rw.InternalError("An internal error occurred")
		return
	}
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Warn().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("Request served degraded")
	}
	rw.Error(status, code, err.Error())
}
