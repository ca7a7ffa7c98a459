package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/timeclock/internal/model"
)

// MemoryStore はプロセス内メモリで動作するUnitOfWork実装。
// ユニットテストやDBなしの動作確認に使用する。
// WithinTxはトランザクションを直列化し、fnがエラーを返した場合は開始時点の状態に戻す。
type MemoryStore struct {
	txMu sync.Mutex

	mu        sync.Mutex
	employees map[string]model.Employee
	auths     map[string]model.AuthRequest
	entries   map[string]model.TimeClockEntry
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: make(map[string]model.Employee),
		auths:     make(map[string]model.AuthRequest),
		entries:   make(map[string]model.TimeClockEntry),
	}
}

// Employees は従業員リポジトリを返す。
func (s *MemoryStore) Employees() EmployeeRepository { return &memoryEmployeeRepo{s: s} }

// AuthRequests は認証リクエストリポジトリを返す。
func (s *MemoryStore) AuthRequests() AuthRequestRepository { return &memoryAuthRequestRepo{s: s} }

// TimeClock は打刻リポジトリを返す。
func (s *MemoryStore) TimeClock() TimeClockRepository { return &memoryTimeClockRepo{s: s} }

// WithinTx はfnを排他的に実行し、エラー時は変更を破棄する。
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees map[string]model.Employee
	auths     map[string]model.AuthRequest
	entries   map[string]model.TimeClockEntry
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memorySnapshot{
		employees: make(map[string]model.Employee, len(s.employees)),
		auths:     make(map[string]model.AuthRequest, len(s.auths)),
		entries:   make(map[string]model.TimeClockEntry, len(s.entries)),
	}
	for k, v := range s.employees {
		snap.employees[k] = v
	}
	for k, v := range s.auths {
		snap.auths[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.auths = snap.auths
	s.entries = snap.entries
}

// --- employees ---

type memoryEmployeeRepo struct {
	s *MemoryStore
}

func (r *memoryEmployeeRepo) FindByUID(ctx context.Context, uid string) (*model.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *model.Employee
	for _, e := range r.s.employees {
		if e.UID != uid {
			continue
		}
		if found == nil || e.CreatedAt.Before(found.CreatedAt) {
			e := e
			found = &e
		}
	}
	return found, nil
}

func (r *memoryEmployeeRepo) ListActive(ctx context.Context) ([]*model.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var employees []*model.Employee
	for _, e := range r.s.employees {
		if e.Active {
			e := e
			employees = append(employees, &e)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].Name < employees[j].Name
	})
	return employees, nil
}

func (r *memoryEmployeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.employees {
		if e.UID == employee.UID && e.Name == employee.Name {
			return model.NewEmployeeAlreadyExistsError(employee.UID, employee.Name)
		}
	}
	r.s.employees[employee.ID] = *employee
	return nil
}

func (r *memoryEmployeeRepo) UpdateCheckedIn(ctx context.Context, id string, checkedIn bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.employees[id]
	if !ok {
		return model.NewEmployeeNotFoundError(id)
	}
	e.CheckedIn = checkedIn
	r.s.employees[id] = e
	return nil
}

// --- auth requests ---

type memoryAuthRequestRepo struct {
	s *MemoryStore
}

func (r *memoryAuthRequestRepo) Create(ctx context.Context, req *model.AuthRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.auths[req.ID] = copyAuthRequest(*req)
	return nil
}

func (r *memoryAuthRequestRepo) FindByID(ctx context.Context, id string) (*model.AuthRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.auths[id]
	if !ok {
		return nil, nil
	}
	req = copyAuthRequest(req)
	return &req, nil
}

func (r *memoryAuthRequestRepo) FindCanonicalPending(ctx context.Context, uid string) (*model.AuthRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *model.AuthRequest
	for _, req := range r.s.auths {
		if req.UID != uid || req.AuthenticatedAt != nil || req.Deleted {
			continue
		}
		if found == nil || req.RequestedAt.After(found.RequestedAt) {
			req := copyAuthRequest(req)
			found = &req
		}
	}
	return found, nil
}

func (r *memoryAuthRequestRepo) Update(ctx context.Context, req *model.AuthRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.auths[req.ID]
	if !ok {
		return model.NewAuthRequestNotFoundError(req.ID)
	}
	stored.AuthenticatedAt = copyTime(req.AuthenticatedAt)
	stored.Success = req.Success
	stored.Deleted = req.Deleted
	r.s.auths[req.ID] = stored
	return nil
}

func (r *memoryAuthRequestRepo) ExpirePendingBefore(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, req := range r.s.auths {
		if req.AuthenticatedAt == nil && !req.Deleted && req.RequestedAt.Before(before) {
			req.Deleted = true
			r.s.auths[id] = req
			n++
		}
	}
	return n, nil
}

// --- time clock entries ---

type memoryTimeClockRepo struct {
	s *MemoryStore
}

func (r *memoryTimeClockRepo) Create(ctx context.Context, entry *model.TimeClockEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.CheckOut == nil {
		for _, e := range r.s.entries {
			if e.EmployeeID == entry.EmployeeID && e.WorkDay.Equal(entry.WorkDay) && e.CheckOut == nil {
				return model.NewEntryAlreadyOpenError(entry.EmployeeID)
			}
		}
	}
	r.s.entries[entry.ID] = copyEntry(*entry)
	return nil
}

func (r *memoryTimeClockRepo) FindOpen(ctx context.Context, employeeID string, day time.Time) (*model.TimeClockEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *model.TimeClockEntry
	for _, e := range r.s.entries {
		if e.EmployeeID != employeeID || !e.WorkDay.Equal(day) || e.CheckOut != nil {
			continue
		}
		if found == nil || e.CheckIn.After(found.CheckIn) {
			e := copyEntry(e)
			found = &e
		}
	}
	return found, nil
}

func (r *memoryTimeClockRepo) ListByEmployee(ctx context.Context, employeeID string, order model.SortOrder) ([]*model.TimeClockEntry, error) {
	return r.list(func(e model.TimeClockEntry) bool {
		return e.EmployeeID == employeeID
	}, order), nil
}

func (r *memoryTimeClockRepo) ListByEmployeeOnDay(ctx context.Context, employeeID string, day time.Time) ([]*model.TimeClockEntry, error) {
	return r.list(func(e model.TimeClockEntry) bool {
		return e.EmployeeID == employeeID && e.WorkDay.Equal(day)
	}, model.Ascending), nil
}

func (r *memoryTimeClockRepo) list(match func(model.TimeClockEntry) bool, order model.SortOrder) []*model.TimeClockEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var entries []*model.TimeClockEntry
	for _, e := range r.s.entries {
		if match(e) {
			e := copyEntry(e)
			entries = append(entries, &e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if order == model.Descending {
			return entries[i].CheckIn.After(entries[j].CheckIn)
		}
		return entries[i].CheckIn.Before(entries[j].CheckIn)
	})
	return entries
}

func (r *memoryTimeClockRepo) Close(ctx context.Context, entry *model.TimeClockEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.entries[entry.ID]
	if !ok || stored.CheckOut != nil {
		return model.NewEntryAlreadyClosedError(entry.ID)
	}
	stored.CheckOut = copyTime(entry.CheckOut)
	stored.Total = copyFloat(entry.Total)
	r.s.entries[entry.ID] = stored
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyAuthRequest(req model.AuthRequest) model.AuthRequest {
	req.AuthenticatedAt = copyTime(req.AuthenticatedAt)
	return req
}

func copyEntry(e model.TimeClockEntry) model.TimeClockEntry {
	e.CheckOut = copyTime(e.CheckOut)
	e.Total = copyFloat(e.Total)
	return e
}

// compile-time interface check
var (
	_ UnitOfWork            = (*MemoryStore)(nil)
	_ EmployeeRepository    = (*memoryEmployeeRepo)(nil)
	_ AuthRequestRepository = (*memoryAuthRequestRepo)(nil)
	_ TimeClockRepository   = (*memoryTimeClockRepo)(nil)
)
