// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/estatemap/internal/metrics"
	"github.com/tomtom215/estatemap/internal/predict"
)

// PredictOptions returns the values the prediction form offers for each
// input, read from the model frame.
func (h *Handler) PredictOptions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	snap := h.loader.Current()
	_, opts, err := snap.Predictor()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessWithMeta(opts, &APIMeta{SnapshotID: snap.ID})
}

// Predict estimates the price range of the posted property.
//
// Request body: predict.Input as JSON. Unknown fields are rejected.
// Response: {log_price, base_price, low, high, unit}
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	snap := h.loader.Current()
	predictor, opts, err := snap.Predictor()
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	var in predict.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		metrics.RecordPrediction("invalid", 0)
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
		case errors.Is(err, io.EOF):
			rw.BadRequest("Request body is empty")
		default:
			rw.BadRequest("Invalid JSON: " + err.Error())
		}
		return
	}
	if verr := in.Validate(opts); verr != nil {
		metrics.RecordPrediction("invalid", 0)
		respondValidation(rw, verr)
		return
	}

	est, err := predictor.Estimate(r.Context(), &in)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.SuccessWithMeta(est, &APIMeta{SnapshotID: snap.ID})
}
