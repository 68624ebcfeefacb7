package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amirasaad/gastos/pkg/domain"
	"github.com/amirasaad/gastos/pkg/domain/attachment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newStore(t *testing.T, maxSize int64) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"), maxSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	s := newStore(t, 0)
	ctx := context.Background()

	name, err := s.Save(ctx, pngBytes, "ticket.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "ticket", "stored names are generated")

	data, mime, err := s.Open(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", mime)

	require.NoError(t, s.Delete(ctx, name))
	require.NoError(t, s.Delete(ctx, name), "deleting twice is fine")
	_, _, err = s.Open(ctx, name)
	require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)
}

func TestLocalStore_Rejects(t *testing.T) {
	s := newStore(t, 16)
	ctx := context.Background()

	_, err := s.Save(ctx, []byte("plain text pretending"), "notes.pdf")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Save(ctx, pngBytes, "x.png")
	require.ErrorIs(t, err, attachment.ErrTooLarge)

	_, err = s.Save(ctx, nil, "x.png")
	require.ErrorIs(t, err, attachment.ErrEmpty)

	big := newStore(t, 0)
	_, err = big.Save(ctx, pngBytes, "photo.pdf")
	require.ErrorIs(t, err, attachment.ErrAttachmentRejected, "extension must match the sniffed type")

	_, _, err = big.Open(ctx, "../etc/passwd")
	require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)
}
