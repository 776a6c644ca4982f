package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/model"
)

// Repository loads and replaces the whole employee table.
type Repository interface {
	Read(ctx context.Context) (*model.Table, error)
	Write(ctx context.Context, table *model.Table) error
}

// EmployeeService implements the record operations. Every mutation runs its
// read-modify-write cycle while holding lock.
type EmployeeService struct {
	store  Repository
	lock   sync.Locker
	logger *zap.Logger
}

// NewEmployeeService creates a new employee service. A nil lock gets a
// private mutex.
func NewEmployeeService(store Repository, lock sync.Locker, logger *zap.Logger) *EmployeeService {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &EmployeeService{
		store:  store,
		lock:   lock,
		logger: logger,
	}
}

// List returns every employee in file order.
func (s *EmployeeService) List(ctx context.Context) ([]model.Employee, error) {
	table, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if table.Rows == nil {
		return []model.Employee{}, nil
	}
	return table.Rows, nil
}

// Get returns the employee with the given ID.
func (s *EmployeeService) Get(ctx context.Context, id int) (model.Employee, bool, error) {
	table, err := s.store.Read(ctx)
	if err != nil {
		return model.Employee{}, false, err
	}
	e, ok := table.Find(id)
	return e, ok, nil
}

// Add appends a new employee and returns its ID. A draft without an ID gets
// max(ID)+1; an explicit ID that is already taken is rejected.
func (s *EmployeeService) Add(ctx context.Context, draft model.Draft) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	table, err := s.store.Read(ctx)
	if err != nil {
		return 0, err
	}

	var id int
	if draft.ID == nil {
		if id, err = table.NextID(); err != nil {
			s.logger.Warn("Cannot assign employee ID", zap.Error(err))
			return 0, apierrors.IDExhausted(err)
		}
	} else {
		id = *draft.ID
		if table.Contains(id) {
			s.logger.Warn("Rejected duplicate employee ID", zap.Int("id", id))
			return 0, apierrors.DuplicateID(id)
		}
	}

	table.Append(draft.Employee(id))
	if err := s.store.Write(ctx, table); err != nil {
		return 0, err
	}

	s.logger.Info("Employee added", zap.Int("id", id), zap.Int("rows", table.Len()))
	return id, nil
}

// Update applies patch to the employee with the given ID. It reports false,
// without writing, when no such employee exists.
func (s *EmployeeService) Update(ctx context.Context, id int, patch model.Patch) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	table, err := s.store.Read(ctx)
	if err != nil {
		return false, err
	}
	if table.Update(id, patch) == 0 {
		return false, nil
	}
	if err := s.store.Write(ctx, table); err != nil {
		return false, err
	}

	s.logger.Info("Employee updated", zap.Int("id", id))
	return true, nil
}

// Delete removes the employee with the given ID. It reports false, without
// writing, when no such employee exists.
func (s *EmployeeService) Delete(ctx context.Context, id int) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	table, err := s.store.Read(ctx)
	if err != nil {
		return false, err
	}
	if table.Remove(id) == 0 {
		return false, nil
	}
	if err := s.store.Write(ctx, table); err != nil {
		return false, err
	}

	s.logger.Info("Employee deleted", zap.Int("id", id), zap.Int("rows", table.Len()))
	return true, nil
}
