// Estatemap - Real Estate Analytics and Recommendation Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatemap

package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/tomtom215/estatemap/internal/logging"
)

// MaxExtractedSize caps how many bytes one archive member may expand to.
const MaxExtractedSize int64 = 1 << 30

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// EnsureExtracted makes target exist. When target is already present it does
// nothing. Otherwise archive (zip or gzip, detected by content) is unpacked
// into target. It reports whether an extraction happened.
//
// Errors: ErrMissingArtifact when neither file exists, ErrExtractionFailed
// when the archive cannot be read or holds no usable member.
func EnsureExtracted(target, archive string) (bool, error) {
	if _, err := Resolve(target); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrMissingArtifact) {
		return false, err
	}
	if archive == "" {
		return false, missing(target)
	}
	if _, err := Resolve(archive); err != nil {
		if errors.Is(err, ErrMissingArtifact) {
			return false, fmt.Errorf("%w: %s (archive %s also absent)", ErrMissingArtifact, target, archive)
		}
		return false, err
	}

	kind, err := sniff(archive)
	if err != nil {
		return false, extractionFailed(archive, err)
	}

	switch kind {
	case "zip":
		err = extractZip(archive, target)
	case "gzip":
		err = extractGzip(archive, target)
	default:
		err = errors.New("not a zip or gzip archive")
	}
	if err != nil {
		return false, extractionFailed(archive, err)
	}

	logging.Info().Str("archive", archive).Str("target", target).Msg("Extracted artifact")
	return true, nil
}

func extractionFailed(archive string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, archive, err)
}

func sniff(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return "zip", nil
	case bytes.HasPrefix(head, gzipMagic):
		return "gzip", nil
	}
	return "", nil
}

// extractZip copies the member whose base name matches target, or else the
// first member with the same extension.
func extractZip(archive, target string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	base := filepath.Base(target)
	ext := strings.ToLower(filepath.Ext(target))

	var member *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if filepath.Base(f.Name) == base {
			member = f
			break
		}
		if member == nil && ext != "" && strings.ToLower(filepath.Ext(f.Name)) == ext {
			member = f
		}
	}
	if member == nil {
		return fmt.Errorf("no member named %s or ending in %s", base, ext)
	}

	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeAtomic(target, rc)
}

func extractGzip(archive, target string) error {
	f, err := os.Open(archive) //nolint:gosec // path comes from configuration
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()
	return writeAtomic(target, gz)
}

// writeAtomic streams r into a temp file next to target, then renames it.
// Readers never observe a partially written target.
func writeAtomic(target string, r io.Reader) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	n, err := io.Copy(tmp, io.LimitReader(r, MaxExtractedSize+1))
	if err != nil {
		cleanup()
		return err
	}
	if n > MaxExtractedSize {
		cleanup()
		return fmt.Errorf("member exceeds %d bytes", MaxExtractedSize)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
