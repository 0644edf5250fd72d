package ports

import (
	"context"
	"io"
)

// MediaKind tags what a stored photo documents.
type MediaKind string

const (
	MediaBefore MediaKind = "before"
	MediaAfter  MediaKind = "after"
)

// MediaStore keeps photos out of the structured store. Save returns only
// after the file is durable, so a reference can be written to a record
// immediately.
type MediaStore interface {
	Save(ctx context.Context, kind MediaKind, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
	// Exists reports domain.ErrMediaNotFound or domain.ErrInvalidPhotoRef
	// for references that cannot be attached to a request.
	Exists(ctx context.Context, ref string) error
}
