package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/model"
	"github.com/devrev/employees-api/internal/storage/scratch"
	"github.com/devrev/employees-api/internal/storage/spreadsheet"
)

// memoryRepo keeps the table in memory and counts writes.
type memoryRepo struct {
	mu      sync.Mutex
	rows    []model.Employee
	writes  int
	readErr error
}

func (m *memoryRepo) Read(context.Context) (*model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return &model.Table{Rows: append([]model.Employee(nil), m.rows...)}, nil
}

func (m *memoryRepo) Write(_ context.Context, t *model.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]model.Employee(nil), t.Rows...)
	m.writes++
	return nil
}

func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func stringPtr(s string) *string { return &s }

func newFileService(t *testing.T) *EmployeeService {
	t.Helper()
	dir := t.TempDir()
	store := spreadsheet.NewStore(filepath.Join(dir, "employees.xlsx"), "",
		scratch.New(filepath.Join(dir, ".tmp")), nil, nil, zap.NewNop())
	return NewEmployeeService(store, nil, zap.NewNop())
}

func TestEmployeeService_Scenario(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	id, err := svc.Add(ctx, model.Draft{Name: "Ana", TimeOffBalance: 5, Job: "Engineer", Address: "1 Main St", RequestedTimeOff: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = svc.Add(ctx, model.Draft{ID: intPtr(1), Name: "Dup"})
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.ErrCodeDuplicateID))

	found, err := svc.Update(ctx, 1, model.Patch{TimeOffBalance: floatPtr(10)})
	require.NoError(t, err)
	assert.True(t, found)

	e, ok, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, e.TimeOffBalance)
	assert.Equal(t, "Ana", e.Name)
	assert.Equal(t, "Engineer", e.Job)

	deleted, err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err = svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmployeeService_AddAssignsMaxPlusOne(t *testing.T) {
	repo := &memoryRepo{rows: []model.Employee{{ID: 7}, {ID: 3}}}
	svc := NewEmployeeService(repo, nil, zap.NewNop())

	id, err := svc.Add(context.Background(), model.Draft{Name: "Next"})
	require.NoError(t, err)
	assert.Equal(t, 8, id)

	id, err = svc.Add(context.Background(), model.Draft{ID: intPtr(42), Name: "Explicit"})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Len(t, repo.rows, 4)
}

func TestEmployeeService_DuplicateLeavesTableUntouched(t *testing.T) {
	repo := &memoryRepo{rows: []model.Employee{{ID: 1, Name: "Ana"}}}
	svc := NewEmployeeService(repo, nil, zap.NewNop())

	_, err := svc.Add(context.Background(), model.Draft{ID: intPtr(1), Name: "Other"})
	require.Error(t, err)
	assert.Equal(t, 0, repo.writes)
	assert.Equal(t, []model.Employee{{ID: 1, Name: "Ana"}}, repo.rows)
}

func TestEmployeeService_AddRejectsWhenIDSpaceIsExhausted(t *testing.T) {
	repo := &memoryRepo{rows: []model.Employee{{ID: math.MaxInt, Name: "Last"}}}
	svc := NewEmployeeService(repo, nil, zap.NewNop())

	_, err := svc.Add(context.Background(), model.Draft{Name: "Next"})
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.ErrCodeIDExhausted))
	assert.ErrorIs(t, err, model.ErrIDExhausted)
	assert.Equal(t, 0, repo.writes)

	id, err := svc.Add(context.Background(), model.Draft{ID: intPtr(5), Name: "Explicit"})
	require.NoError(t, err)
	assert.Equal(t, 5, id)
}

func TestEmployeeService_MissingIDDoesNotWrite(t *testing.T) {
	repo := &memoryRepo{rows: []model.Employee{{ID: 1}}}
	svc := NewEmployeeService(repo, nil, zap.NewNop())
	ctx := context.Background()

	found, err := svc.Update(ctx, 9, model.Patch{Name: stringPtr("x")})
	require.NoError(t, err)
	assert.False(t, found)

	deleted, err := svc.Delete(ctx, 9)
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, 0, repo.writes)
}

func TestEmployeeService_UpdateOnlyTouchesPresentFields(t *testing.T) {
	orig := model.Employee{ID: 2, Name: "Bo", TimeOffBalance: 3, Job: "Ops", Address: "Elm", RequestedTimeOff: 4}
	repo := &memoryRepo{rows: []model.Employee{orig}}
	svc := NewEmployeeService(repo, nil, zap.NewNop())

	found, err := svc.Update(context.Background(), 2, model.Patch{Job: stringPtr("Lead"), RequestedTimeOff: intPtr(0)})
	require.NoError(t, err)
	require.True(t, found)

	want := orig
	want.Job = "Lead"
	want.RequestedTimeOff = 0
	assert.Equal(t, []model.Employee{want}, repo.rows)
}

func TestEmployeeService_ReadErrorPropagates(t *testing.T) {
	boom := errors.New("disk gone")
	svc := NewEmployeeService(&memoryRepo{readErr: boom}, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, _, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Add(ctx, model.Draft{})
	assert.ErrorIs(t, err, boom)
	_, err = svc.Update(ctx, 1, model.Patch{})
	assert.ErrorIs(t, err, boom)
	_, err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, boom)
}

func TestEmployeeService_ConcurrentAddsGetUniqueIDs(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	const n = 10
	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Add(ctx, model.Draft{Name: "worker"})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)
}

type countingLocker struct {
	sync.Mutex
	locks int
}

func (c *countingLocker) Lock() {
	c.Mutex.Lock()
	c.locks++
}

func TestEmployeeService_UsesInjectedLock(t *testing.T) {
	lock := &countingLocker{}
	svc := NewEmployeeService(&memoryRepo{}, lock, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Add(ctx, model.Draft{Name: "a"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 1, model.Patch{Name: stringPtr("b")})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, lock.locks)
}
