// Package attachment holds the rules for files attached to movements and
// the data-URI encoding used to embed them in backups.
package attachment

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/amirasaad/gastos/pkg/domain"
)

// MaxSize is the largest accepted attachment.
const MaxSize = 5 << 20

var (
	// ErrAttachmentRejected is returned for files with a disallowed type or extension.
	ErrAttachmentRejected = domain.NewError(domain.ErrValidation, "attachment rejected: only PDF, JPEG, PNG, GIF and WEBP files are allowed")
	// ErrTooLarge is returned for files larger than the size limit.
	ErrTooLarge = domain.NewError(domain.ErrValidation, "attachment exceeds the maximum size")
	// ErrEmpty is returned for zero-length files.
	ErrEmpty = domain.NewError(domain.ErrValidation, "attachment is empty")
	// ErrAttachmentNotFound is returned when a stored file is missing.
	ErrAttachmentNotFound = domain.NewError(domain.ErrNotFound, "attachment not found")
	// ErrInvalidDataURI is returned when an embedded attachment cannot be decoded.
	ErrInvalidDataURI = domain.NewError(domain.ErrValidation, "attachment is not a valid base64 data URI")
)

// mime type -> canonical extension and the extensions accepted for it.
var allowed = map[string]struct {
	ext     string
	aliases []string
}{
	"application/pdf": {ext: "pdf", aliases: []string{"pdf"}},
	"image/jpeg":      {ext: "jpg", aliases: []string{"jpg", "jpeg"}},
	"image/png":       {ext: "png", aliases: []string{"png"}},
	"image/gif":       {ext: "gif", aliases: []string{"gif"}},
	"image/webp":      {ext: "webp", aliases: []string{"webp"}},
}

var dataURIPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// Extension returns the canonical extension for an allowed MIME type.
func Extension(mime string) (string, error) {
	a, ok := allowed[normalizeMIME(mime)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported type %q", ErrAttachmentRejected, mime)
	}
	return a.ext, nil
}

// IsImage reports whether mime is one of the allowed image types.
func IsImage(mime string) bool {
	m := normalizeMIME(mime)
	_, ok := allowed[m]
	return ok && strings.HasPrefix(m, "image/")
}

// Validate checks size, type and, when a name is given, that its extension
// matches the detected type.
func Validate(size int64, mime, name string, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxSize
	}
	if size == 0 {
		return ErrEmpty
	}
	if size > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	a, ok := allowed[normalizeMIME(mime)]
	if !ok {
		return fmt.Errorf("%w: unsupported type %q", ErrAttachmentRejected, mime)
	}
	if name == "" {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, alias := range a.aliases {
		if ext == alias {
			return nil
		}
	}
	return fmt.Errorf("%w: extension %q does not match %s", ErrAttachmentRejected, ext, mime)
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" string.
func ParseDataURI(uri string) (mime string, data []byte, err error) {
	m := dataURIPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return "", nil, ErrInvalidDataURI
	}
	data, err = base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return normalizeMIME(m[1]), data, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func normalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
