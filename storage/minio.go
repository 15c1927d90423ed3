package storage

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Minio stores blobs in an S3 compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
	base   string
}

// NewMinio creates a new minio service. Returned URLs are formed by joining
// the specified base URL with the object key.
func NewMinio(client *minio.Client, bucket, base string) *Minio {
	return &Minio{
		client: client,
		bucket: bucket,
		base:   strings.TrimRight(base, "/"),
	}
}

// Upload implements the Service interface.
func (s *Minio) Upload(ctx context.Context, name, mediaType string, data io.Reader, size int64) (string, error) {
	// ensure context
	if ctx == nil {
		ctx = context.Background()
	}

	// construct key
	key := Key(name)

	// store object
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: mediaType,
	})
	if err != nil {
		return "", err
	}

	return s.base + "/" + key, nil
}

// Download implements the Service interface.
func (s *Minio) Download(ctx context.Context, url string, out io.Writer) error {
	// ensure context
	if ctx == nil {
		ctx = context.Background()
	}

	// get object
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(url), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	// write data
	_, err = io.Copy(out, obj)
	if isMinioNotFoundErr(err) {
		return ErrNotFound.Wrap()
	}

	return err
}

// Delete implements the Service interface.
func (s *Minio) Delete(ctx context.Context, url string) (bool, error) {
	// ensure context
	if ctx == nil {
		ctx = context.Background()
	}

	// check object
	_, err := s.client.StatObject(ctx, s.bucket, s.key(url), minio.StatObjectOptions{})
	if isMinioNotFoundErr(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	// remove object
	err = s.client.RemoveObject(ctx, s.bucket, s.key(url), minio.RemoveObjectOptions{})
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *Minio) key(url string) string {
	return strings.TrimPrefix(strings.TrimPrefix(url, s.base), "/")
}

func isMinioNotFoundErr(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
