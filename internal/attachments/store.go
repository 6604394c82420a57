// Package attachments stores message attachment blobs outside the database.
// A blob is addressed by the URI returned from Upload; the message row keeps
// only that URI.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mailbox-server/internal/config"
	"mailbox-server/internal/logging"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Load when the blob does not exist.
var ErrNotFound = errors.New("attachments: not found")

// Store uploads, loads and deletes attachment blobs.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error)
	Load(ctx context.Context, uri string) (io.ReadCloser, error)
	Delete(ctx context.Context, uri string) error
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.AttachmentConfig, log logging.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir, log)
	case "s3":
		return NewS3Store(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown attachment backend %q", cfg.Backend)
	}
}

// objectKey builds a date-partitioned, collision free key for filename.
func objectKey(prefix, filename string) string {
	now := time.Now().UTC()
	return path.Join(prefix, now.Format("2006/01/02"), uuid.New().String(), SanitizeFilename(filename))
}

// SanitizeFilename drops any directory components and characters that are
// awkward in object keys. An empty result becomes "attachment".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "attachment"
	}
	return name
}
