// Package objectstore provides the remote object stores the employee
// spreadsheet is mirrored to: an S3-compatible client (IBM Cloud Object
// Storage, AWS S3, MinIO) and an in-memory store for tests and local runs.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a store implementation.
type Driver string

const (
	DriverS3     Driver = "s3"
	DriverMemory Driver = "memory"
)

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrNotConfigured is returned when required connection settings are missing.
	ErrNotConfigured = errors.New("object store not configured")
)

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// PutOptions carries optional object attributes.
type PutOptions struct {
	ContentType string
}

// Store is a flat key/value object store. Put overwrites an existing key.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
}
