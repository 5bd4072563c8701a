// Package storage holds evidence attachments uploaded alongside incidents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/secdesk/backend/internal/apperr"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("evidence file exceeds size limit")

// EvidenceStore persists raw attachment bytes and returns a publicly
// dereferenceable locator for them.
type EvidenceStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// LocalEvidenceStore writes attachments below a directory that the HTTP
// server exposes under /uploads.
type LocalEvidenceStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

func NewLocalEvidenceStore(dir, publicBaseURL string, maxBytes int64) *LocalEvidenceStore {
	return &LocalEvidenceStore{
		dir:      dir,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Dir is the root directory served as /uploads.
func (s *LocalEvidenceStore) Dir() string {
	return s.dir
}

// Save stores r as <yyyy>/<mm>/<uuid>-<name> and returns its URL. Partial
// files are removed on failure.
func (s *LocalEvidenceStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := sanitizeName(name)
	if clean == "" {
		return "", apperr.Invalid("file", "file name is required")
	}

	now := s.now().UTC()
	rel := path.Join(now.Format("2006"), now.Format("01"), uuid.NewString()+"-"+clean)
	dst := filepath.Join(s.dir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file: %w", err)
	}

	// One extra byte distinguishes "exactly at the limit" from "over it".
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write evidence file: %w", err)
	case written > s.maxBytes:
		_ = os.Remove(dst)
		return "", ErrTooLarge
	case closeErr != nil:
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to close evidence file: %w", closeErr)
	}

	return s.baseURL + "/uploads/" + rel, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeName keeps the base name only and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return base
}
