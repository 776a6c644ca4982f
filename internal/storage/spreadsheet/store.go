// Package spreadsheet persists the employee table as an xlsx workbook on local
// disk and mirrors it to the remote object store after every write.
package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/model"
	"github.com/devrev/employees-api/internal/storage/remote"
	"github.com/devrev/employees-api/internal/storage/scratch"
)

// Syncer mirrors the local file to and from remote storage.
type Syncer interface {
	Download(ctx context.Context) remote.Result
	Upload(ctx context.Context) remote.Result
}

// Recorder receives write observations.
type Recorder interface {
	ObserveWrite(duration time.Duration, rows int)
}

// Store reads and writes the employee spreadsheet.
type Store struct {
	path     string
	sheet    string
	scratch  *scratch.Dir
	syncer   Syncer
	recorder Recorder
	logger   *zap.Logger

	// initMu serializes the exists/download/initialize step of first reads.
	initMu sync.Mutex
}

// NewStore creates a store for the workbook at path. syncer and recorder may be nil.
func NewStore(path, sheet string, dir *scratch.Dir, syncer Syncer, recorder Recorder, logger *zap.Logger) *Store {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Store{
		path:     path,
		sheet:    sheet,
		scratch:  dir,
		syncer:   syncer,
		recorder: recorder,
		logger:   logger,
	}
}

// Path returns the canonical local file path.
func (s *Store) Path() string {
	return s.path
}

// Read returns the current table. A missing file is downloaded from the
// remote store, or initialized empty when that fails.
func (s *Store) Read(ctx context.Context) (*model.Table, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, apierrors.StorageFailed("failed to open spreadsheet", err).
			WithDetail("path", s.path)
	}
	defer f.Close()

	table, err := Decode(f)
	if err != nil {
		s.logger.Error("Spreadsheet is malformed",
			zap.String("path", s.path),
			zap.Error(err))
		return nil, apierrors.MalformedFile(s.path, err)
	}
	return table, nil
}

// Write replaces the persisted table and then attempts an upload. The caller
// must hold the process lock. Upload failures are logged only.
func (s *Store) Write(ctx context.Context, table *model.Table) error {
	start := time.Now()

	if err := s.writeLocal(table); err != nil {
		s.logger.Error("Failed to write spreadsheet",
			zap.String("path", s.path),
			zap.Int("rows", table.Len()),
			zap.Error(err))
		return apierrors.StorageFailed("failed to write spreadsheet", err).
			WithDetail("path", s.path)
	}

	if s.recorder != nil {
		s.recorder.ObserveWrite(time.Since(start), table.Len())
	}

	if s.syncer != nil {
		// the local file is already replaced; a client going away must not
		// leave the remote copy stale
		s.syncer.Upload(context.WithoutCancel(ctx))
	}
	return nil
}

// ensure makes sure the local file exists. Concurrent callers wait for the
// first one; a file that appears meanwhile is never overwritten.
func (s *Store) ensure(ctx context.Context) error {
	exists, err := s.exists()
	if err != nil || exists {
		return err
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	if exists, err = s.exists(); err != nil || exists {
		return err
	}

	if s.syncer != nil {
		s.syncer.Download(context.WithoutCancel(ctx))
		if exists, err = s.exists(); err != nil || exists {
			return err
		}
	}

	s.logger.Info("Initializing empty spreadsheet", zap.String("path", s.path))
	if err := s.writeLocal(&model.Table{}); err != nil {
		return apierrors.StorageFailed("failed to initialize spreadsheet", err).
			WithDetail("path", s.path)
	}
	return nil
}

func (s *Store) exists() (bool, error) {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, apierrors.StorageFailed("failed to stat spreadsheet", err).
			WithDetail("path", s.path)
	}
}

// writeLocal stages the encoded table in the scratch directory and renames it
// onto the canonical path.
func (s *Store) writeLocal(table *model.Table) error {
	f, err := s.scratch.Create(filepath.Base(s.path))
	if err != nil {
		return err
	}
	if err := Encode(f, table, s.sheet); err != nil {
		scratch.Discard(f)
		return fmt.Errorf("failed to encode spreadsheet: %w", err)
	}
	return scratch.Commit(f, s.path)
}
