package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mailbox-server/internal/logging"
)

const localScheme = "local://"

// LocalStore keeps attachments on the local filesystem under a base directory.
type LocalStore struct {
	basePath string
	log      logging.Logger
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the base directory if needed.
func NewLocalStore(basePath string, log logging.Logger) (*LocalStore, error) {
	if basePath == "" {
		return nil, errors.New("attachment directory is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &LocalStore{basePath: basePath, log: log}, nil
}

func (s *LocalStore) Upload(ctx context.Context, filename, _ string, content io.Reader) (string, error) {
	key := objectKey("", filename)
	full := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to save attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to save attachment: %w", err)
	}

	s.log.Debug(ctx, "stored attachment", "key", key)
	return localScheme + key, nil
}

func (s *LocalStore) Load(_ context.Context, uri string) (io.ReadCloser, error) {
	full, err := s.resolve(uri)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, uri string) error {
	full, err := s.resolve(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	s.log.Debug(ctx, "deleted attachment", "uri", uri)
	return nil
}

// resolve maps a local:// URI to a path, refusing anything that escapes basePath.
func (s *LocalStore) resolve(uri string) (string, error) {
	key, ok := strings.CutPrefix(uri, localScheme)
	if !ok || key == "" {
		return "", fmt.Errorf("invalid local attachment uri: %s", uri)
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid local attachment uri: %s", uri)
	}
	return full, nil
}
