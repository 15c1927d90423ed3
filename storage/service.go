// Package storage implements attachment storage: uploaded files are handed
// to a service that stores the blob and returns a retrievable URL which is
// recorded on the post.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/256dpi/xo"

	"github.com/256dpi/fire/coal"
)

// ErrNotFound is returned if there is no blob for the provided key.
var ErrNotFound = xo.BF("not found")

// Service is responsible for managing uploaded attachments.
type Service interface {
	// Upload should store the blob read from the provided reader and return
	// a retrievable URL.
	Upload(ctx context.Context, name, mediaType string, data io.Reader, size int64) (string, error)

	// Download should write the blob stored under the provided URL to the
	// provided writer.
	Download(ctx context.Context, url string, out io.Writer) error

	// Delete should remove the blob stored under the provided URL. It should
	// return whether a blob has been removed.
	Delete(ctx context.Context, url string) (bool, error)
}

// Key returns a new storage key that shards blobs by the trailing bytes of a
// fresh id.
func Key(name string) string {
	str := coal.New().Hex()
	return fmt.Sprintf("%s/%s/%s-%s", str[len(str)-2:], str[len(str)-4:len(str)-2], str, name)
}
