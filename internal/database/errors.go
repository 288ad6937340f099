// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/estatemap/internal/logging"
)

var (
	// ErrNotIngested means a query ran before its table was loaded.
	ErrNotIngested = errors.New("table not ingested")

	// ErrSectorNotFound means the sector has no listings.
	ErrSectorNotFound = errors.New("sector not found")

	// ErrMissingColumns means a CSV lacks columns the queries need.
	ErrMissingColumns = errors.New("missing required columns")
)

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
