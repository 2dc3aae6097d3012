package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"kasetinfo/internal/slug"
)

// ObjectStore is the storage client the Bucket uploader writes through.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// Bucket uploads images to S3-compatible object storage.
type Bucket struct {
	store ObjectStore
	now   func() time.Time
}

// NewBucket creates an uploader over store.
func NewBucket(store ObjectStore) *Bucket {
	return &Bucket{store: store, now: time.Now}
}

// Upload stores the image under items/<year>/<month>/<uuid>[-<name>]<ext>
// and returns its public URL. The name part is the slugged file name.
func (b *Bucket) Upload(ctx context.Context, u Upload) (string, error) {
	now := b.now()
	name := uuid.NewString()
	if s := slug.FromFilename(u.Filename); s != "" {
		name += "-" + s
	}
	key := fmt.Sprintf("items/%d/%02d/%s%s", now.Year(), now.Month(), name, u.Ext())
	if err := b.store.Upload(ctx, key, u.ContentType, bytes.NewReader(u.Data), int64(len(u.Data))); err != nil {
		return "", err
	}
	return b.store.FileURL(key), nil
}
