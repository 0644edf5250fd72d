// Package media stores request photos on local disk.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
	"github.com/99minutos/service-requests/pkg/metrics"
)

const (
	DefaultMaxBytes = 10 * 1024 * 1024 // 10 MB
	sniffLen        = 3072
)

var (
	ErrEmptyFile       = fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", domain.ErrInvalidInput)
	ErrInvalidMimeType = fmt.Errorf("%w: only images are accepted", domain.ErrInvalidInput)
)

// AllowedMimeTypes defines which photo formats are accepted.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
}

// refPattern matches the references Save hands out: <kind>/<uuid><ext>.
var refPattern = regexp.MustCompile(`^(before|after)/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[a-z0-9]{2,5}$`)

// Store writes photos under a base directory. A reference is a path relative
// to that directory and is only handed out once the file is durable.
type Store struct {
	baseDir  string
	maxBytes int64
	log      zerolog.Logger
}

var _ ports.MediaStore = (*Store)(nil)

func NewStore(baseDir string, maxBytes int64, log zerolog.Logger) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	for _, kind := range []ports.MediaKind{ports.MediaBefore, ports.MediaAfter} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create media directory: %w", err)
		}
	}
	return &Store{baseDir: baseDir, maxBytes: maxBytes, log: log}, nil
}

// Save copies r to disk and returns the new reference. The file is written
// to a temporary name, synced and renamed, so a reference never points at a
// partial file.
func (s *Store) Save(ctx context.Context, kind ports.MediaKind, r io.Reader) (string, error) {
	if kind != ports.MediaBefore && kind != ports.MediaAfter {
		return "", fmt.Errorf("%w: unknown media kind %q", domain.ErrInvalidInput, kind)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", ErrEmptyFile
	}

	mime := mimetype.Detect(head)
	base := strings.Split(mime.String(), ";")[0]
	if !AllowedMimeTypes[base] {
		return "", ErrInvalidMimeType
	}

	dir := filepath.Join(s.baseDir, string(kind))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", domain.NewStorageError("save media", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	src := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1)
	written, err := io.Copy(tmp, contextReader{ctx: ctx, r: src})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", domain.NewStorageError("save media", err)
	}
	if written > s.maxBytes {
		return "", ErrFileTooLarge
	}
	if err := tmp.Sync(); err != nil {
		return "", domain.NewStorageError("save media", err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.NewStorageError("save media", err)
	}

	ref := string(kind) + "/" + uuid.New().String() + mime.Extension()
	if err := os.Rename(tmpName, filepath.Join(s.baseDir, filepath.FromSlash(ref))); err != nil {
		return "", domain.NewStorageError("save media", err)
	}
	tmp = nil
	if err := syncDir(dir); err != nil {
		return "", domain.NewStorageError("save media", err)
	}

	metrics.MediaUploadBytes.WithLabelValues(string(kind)).Observe(float64(written))
	s.log.Info().Str("ref", ref).Str("mime", base).Int64("bytes", written).Msg("photo stored")
	return ref, nil
}

// Open returns the stored photo and its content type.
func (s *Store) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", domain.ErrMediaNotFound
		}
		return nil, "", domain.NewStorageError("open media", err)
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, "", domain.NewStorageError("open media", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, "", domain.NewStorageError("open media", err)
	}
	return f, mime.String(), nil
}

func (s *Store) Exists(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrMediaNotFound
		}
		return domain.NewStorageError("stat media", err)
	}
	if !info.Mode().IsRegular() {
		return domain.ErrMediaNotFound
	}
	return nil
}

// path resolves ref inside baseDir. Only references produced by Save are
// accepted, which rules out traversal.
func (s *Store) path(ref string) (string, error) {
	if !refPattern.MatchString(ref) {
		return "", domain.ErrInvalidPhotoRef
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(ref)), nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
