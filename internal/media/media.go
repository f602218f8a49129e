package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrDisabled = errors.New("media storage is not configured")

// Uploaded object
type Object struct {
	Key string
	URL string
}

// File as it comes from client
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Object storage for uploaded videos and thumbnails
type Store interface {
	Save(ctx context.Context, key string, contentType string, r io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Unique object key inside folder, extension of original file name is kept
func NewKey(folder string, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

// Store used when object storage is not configured: nothing can be uploaded
type DisabledStore struct{}

func (DisabledStore) Save(ctx context.Context, key string, contentType string, r io.Reader) (Object, error) {
	return Object{}, ErrDisabled
}

func (DisabledStore) Delete(ctx context.Context, key string) error {
	return nil
}
