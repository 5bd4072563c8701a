package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/secdesk/backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *LocalEvidenceStore {
	t.Helper()
	s := NewLocalEvidenceStore(t.TempDir(), "http://localhost:8080/", maxBytes)
	s.now = func() time.Time { return time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestLocalEvidenceStoreSave(t *testing.T) {
	s := newTestStore(t, 1024)

	url, err := s.Save(context.Background(), "camera 1 (front).jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	prefix := "http://localhost:8080/uploads/2024/07/"
	require.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, "-camera_1_front_.jpg"), url)

	rel := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(s.Dir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	other, err := s.Save(context.Background(), "camera 1 (front).jpg", strings.NewReader("again"))
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
}

func TestLocalEvidenceStoreSizeLimit(t *testing.T) {
	s := newTestStore(t, 4)

	_, err := s.Save(context.Background(), "exact.txt", strings.NewReader("1234"))
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "big.txt", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	matches, err := filepath.Glob(filepath.Join(s.Dir(), "2024", "07", "*-big.txt"))
	require.NoError(t, err)
	assert.Empty(t, matches, "oversized upload must not be left on disk")
}

func TestLocalEvidenceStoreRejectsBadInput(t *testing.T) {
	s := newTestStore(t, 16)

	_, err := s.Save(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\shot.png`: "shot.png",
		"we ird#name?.mov":     "we_ird_name_.mov",
		"...":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}
