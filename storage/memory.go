package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// Blob is a blob stored by the memory service.
type Blob struct {
	// The media type.
	Type string

	// The data.
	Bytes []byte
}

// Memory is a service for testing purposes that stores blobs in memory.
type Memory struct {
	// The stored blobs keyed by URL.
	Blobs map[string]*Blob

	base  string
	mutex sync.Mutex
}

// NewMemory will create a new memory service that yields URLs under the
// specified base URL.
func NewMemory(base string) *Memory {
	return &Memory{
		Blobs: map[string]*Blob{},
		base:  strings.TrimRight(base, "/"),
	}
}

// Upload implements the Service interface.
func (s *Memory) Upload(_ context.Context, name, mediaType string, data io.Reader, _ int64) (string, error) {
	// read data
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}

	// construct url
	url := s.base + "/" + Key(name)

	// store blob
	s.mutex.Lock()
	s.Blobs[url] = &Blob{
		Type:  mediaType,
		Bytes: buf,
	}
	s.mutex.Unlock()

	return url, nil
}

// Download implements the Service interface.
func (s *Memory) Download(_ context.Context, url string, out io.Writer) error {
	// get blob
	s.mutex.Lock()
	blob, ok := s.Blobs[url]
	s.mutex.Unlock()
	if !ok {
		return ErrNotFound.Wrap()
	}

	// write data
	_, err := io.Copy(out, bytes.NewReader(blob.Bytes))

	return err
}

// Delete implements the Service interface.
func (s *Memory) Delete(_ context.Context, url string) (bool, error) {
	// delete blob
	s.mutex.Lock()
	_, ok := s.Blobs[url]
	delete(s.Blobs, url)
	s.mutex.Unlock()

	return ok, nil
}
