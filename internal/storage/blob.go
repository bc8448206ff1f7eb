package storage

import "io"

// BlobStore keeps binary assets such as listening-task audio.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
