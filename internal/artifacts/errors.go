// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package artifacts

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArtifact means a required file does not exist.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrExtractionFailed means an archive exists but could not be unpacked.
	ErrExtractionFailed = errors.New("artifact extraction failed")

	// ErrIndexMisaligned means a similarity matrix does not line up with the
	// distance table rows.
	ErrIndexMisaligned = errors.New("artifact index misaligned")

	// ErrMalformed means a file exists but its contents cannot be parsed.
	ErrMalformed = errors.New("malformed artifact")
)

// missing builds an ErrMissingArtifact error naming the file.
func missing(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
}

// malformed builds an ErrMalformed error for path.
func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, path, fmt.Sprintf(format, args...))
}
