// Package remote mirrors the local spreadsheet to and from an object store.
// Every operation is best-effort: failures are logged and reported through a
// Result, never returned as errors.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/devrev/employees-api/internal/config"
	"github.com/devrev/employees-api/internal/storage/objectstore"
	"github.com/devrev/employees-api/internal/storage/scratch"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	// ErrNotConfigured means the remote settings are incomplete.
	ErrNotConfigured = objectstore.ErrNotConfigured
	// ErrObjectNotFound means the remote object does not exist yet.
	ErrObjectNotFound = objectstore.ErrObjectNotFound
)

// Sync operation and result labels.
const (
	OpDownload = "download"
	OpUpload   = "upload"

	ResultSuccess       = "success"
	ResultNotConfigured = "not_configured"
	ResultNotFound      = "not_found"
	ResultError         = "error"
)

// Result is the outcome of a sync attempt.
type Result struct {
	OK     bool
	Reason error
}

// Label classifies the result for logs and metrics.
func (r Result) Label() string {
	switch {
	case r.OK:
		return ResultSuccess
	case errors.Is(r.Reason, ErrNotConfigured):
		return ResultNotConfigured
	case errors.Is(r.Reason, ErrObjectNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}

// Opener builds an object store client.
type Opener func(ctx context.Context) (objectstore.Store, error)

// S3Opener returns an Opener for the configured S3-compatible endpoint.
func S3Opener(cfg config.RemoteConfig) Opener {
	return func(ctx context.Context) (objectstore.Store, error) {
		// the client outlives the request that first needed it
		return objectstore.NewS3Store(context.WithoutCancel(ctx), objectstore.S3Config{
			Endpoint:        cfg.Endpoint,
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			APIKey:          cfg.APIKey,
			InstanceID:      cfg.InstanceID,
			IAMEndpoint:     cfg.IAMEndpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
			Timeout:         cfg.Timeout,
		})
	}
}

// StaticOpener always returns store.
func StaticOpener(store objectstore.Store) Opener {
	return func(context.Context) (objectstore.Store, error) { return store, nil }
}

// Recorder receives one observation per sync attempt.
type Recorder interface {
	RecordRemoteSync(operation, result string)
}

// Syncer downloads and uploads one object to one local path.
type Syncer struct {
	objectName string
	localPath  string
	scratch    *scratch.Dir
	open       Opener
	recorder   Recorder
	logger     *zap.Logger

	mu    sync.Mutex
	store objectstore.Store
}

// NewSyncer creates a Syncer. recorder may be nil.
func NewSyncer(objectName, localPath string, dir *scratch.Dir, open Opener, recorder Recorder, logger *zap.Logger) *Syncer {
	return &Syncer{
		objectName: objectName,
		localPath:  localPath,
		scratch:    dir,
		open:       open,
		recorder:   recorder,
		logger:     logger,
	}
}

// client returns the cached store, building it on first successful use.
func (s *Syncer) client(ctx context.Context) (objectstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, nil
	}
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}

// Download fetches the remote object and atomically replaces the local file.
func (s *Syncer) Download(ctx context.Context) Result {
	err := s.download(ctx)
	return s.finish(OpDownload, err)
}

func (s *Syncer) download(ctx context.Context) error {
	store, err := s.client(ctx)
	if err != nil {
		return err
	}

	_, body, err := store.Get(ctx, s.objectName)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := s.scratch.Create(filepath.Base(s.localPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		scratch.Discard(f)
		return fmt.Errorf("failed to stage download: %w", err)
	}
	return scratch.Commit(f, s.localPath)
}

// Upload sends the local file to the remote store.
func (s *Syncer) Upload(ctx context.Context) Result {
	err := s.upload(ctx)
	return s.finish(OpUpload, err)
}

func (s *Syncer) upload(ctx context.Context) error {
	store, err := s.client(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(s.localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	_, err = store.Put(ctx, s.objectName, f, objectstore.PutOptions{ContentType: xlsxContentType})
	return err
}

func (s *Syncer) finish(op string, err error) Result {
	res := Result{OK: err == nil, Reason: err}
	label := res.Label()

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("object", s.objectName),
		zap.String("path", s.localPath),
		zap.String("result", label),
	}
	if res.OK {
		s.logger.Info("Remote sync completed", fields...)
	} else {
		s.logger.Warn("Remote sync failed", append(fields, zap.Error(err))...)
	}

	if s.recorder != nil {
		s.recorder.RecordRemoteSync(op, label)
	}
	return res
}
