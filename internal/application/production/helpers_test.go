package production

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// testClock is a settable time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStageRepo is an in-memory StageRepository
type memStageRepo struct {
	mu           sync.Mutex
	stages       map[uuid.UUID]production.Stage
	referenced   map[uuid.UUID]bool
	inProduction func() bool
}

func newMemStageRepo() *memStageRepo {
	return &memStageRepo{stages: map[uuid.UUID]production.Stage{}, referenced: map[uuid.UUID]bool{}}
}

func (r *memStageRepo) FindAll(_ context.Context) ([]production.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.Stage, 0, len(r.stages))
	for _, s := range r.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *memStageRepo) FindByID(_ context.Context, id uuid.UUID) (*production.Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stages[id]
	if !ok {
		return nil, shared.NewNotFoundError("stage")
	}
	return &s, nil
}

func (r *memStageRepo) Save(_ context.Context, stage *production.Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.stages {
		if id != stage.ID && s.Order == stage.Order {
			return shared.NewConflictError("stage order %d is already in use", stage.Order)
		}
	}
	r.stages[stage.ID] = *stage
	return nil
}

func (r *memStageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stages[id]; !ok {
		return shared.NewNotFoundError("stage")
	}
	delete(r.stages, id)
	return nil
}

func (r *memStageRepo) IsReferenced(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.referenced[id], nil
}

func (r *memStageRepo) HasFramesInProduction(_ context.Context) (bool, error) {
	if r.inProduction == nil {
		return false, nil
	}
	return r.inProduction(), nil
}

// memBatchRepo is an in-memory BatchRepository
type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]production.Batch
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*production.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.NewNotFoundError("batch")
	}
	return &b, nil
}

func (r *memBatchRepo) FindAll(_ context.Context, filter production.BatchFilter) ([]production.Batch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.Batch, 0)
	for _, b := range r.batches {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	start := min(filter.Offset(), len(out))
	end := min(start+filter.PageSize, len(out))
	return out[start:end], total, nil
}

func (r *memBatchRepo) Create(_ context.Context, batch *production.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *batch
	c.ClearDomainEvents()
	r.batches[batch.ID] = c
	return nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *production.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[batch.ID]
	if !ok || stored.Version != batch.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	c := *batch
	c.ClearDomainEvents()
	r.batches[batch.ID] = c
	return nil
}

// memFrameRepo is an in-memory FrameRepository
type memFrameRepo struct {
	mu     sync.Mutex
	frames map[uuid.UUID]production.Frame
}

func (r *memFrameRepo) FindByID(_ context.Context, id uuid.UUID) (*production.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.frames[id]
	if !ok {
		return nil, shared.NewNotFoundError("frame")
	}
	return &f, nil
}

func (r *memFrameRepo) list(keep func(production.Frame) bool) []production.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.Frame, 0)
	for _, f := range r.frames {
		if keep(f) {
			out = append(out, f)
		}
	}
	production.SortFrames(out)
	return out
}

func (r *memFrameRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]production.Frame, error) {
	return r.list(func(f production.Frame) bool { return f.BatchID == batchID }), nil
}

func (r *memFrameRepo) FindByBatchAndStage(_ context.Context, batchID, stageID uuid.UUID) ([]production.Frame, error) {
	return r.list(func(f production.Frame) bool {
		return f.BatchID == batchID && f.CurrentStageID == stageID && !f.IsInInventory()
	}), nil
}

func (r *memFrameRepo) CreateBatch(_ context.Context, frames []*production.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range frames {
		c := *f
		c.ClearDomainEvents()
		r.frames[f.ID] = c
	}
	return nil
}

func (r *memFrameRepo) Save(_ context.Context, frame *production.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.frames[frame.ID]
	if !ok || stored.Version != frame.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	c := *frame
	c.ClearDomainEvents()
	r.frames[frame.ID] = c
	return nil
}

// memProgressRepo is an in-memory ProgressRepository
type memProgressRepo struct {
	mu      sync.Mutex
	entries map[progressKey]production.StageProgress
}

func (r *memProgressRepo) Find(_ context.Context, frameID, stageID uuid.UUID) (*production.StageProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[progressKey{frameID, stageID}]
	if !ok {
		return nil, shared.NewNotFoundError("stage progress")
	}
	return &e, nil
}

func (r *memProgressRepo) FindByFrames(_ context.Context, frameIDs []uuid.UUID) ([]production.StageProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(frameIDs))
	for _, id := range frameIDs {
		wanted[id] = true
	}
	out := make([]production.StageProgress, 0)
	for k, e := range r.entries {
		if wanted[k.frameID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memProgressRepo) Upsert(_ context.Context, p *production.StageProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[progressKey{p.FrameID, p.StageID}] = *p
	return nil
}

// memSessionRepo is an in-memory TimerSessionRepository with the unique
// user constraint of the real table
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]production.TimerSession
}

func (r *memSessionRepo) FindByUser(_ context.Context, userID uuid.UUID) (*production.TimerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, shared.NewNotFoundError("timer session")
}

func (r *memSessionRepo) FindAll(_ context.Context) ([]production.TimerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.TimerSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (r *memSessionRepo) FindIdle(_ context.Context, cutoff time.Time) ([]production.TimerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.TimerSession, 0)
	for _, s := range r.sessions {
		if s.LastActivityAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Create(_ context.Context, session *production.TimerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == session.UserID {
			return shared.NewConflictError("worker already has an active timer")
		}
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) Update(_ context.Context, session *production.TimerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return production.NewNoTimerError()
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return production.NewNoTimerError()
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// memTimeLogRepo is an in-memory TimeLogRepository
type memTimeLogRepo struct {
	mu   sync.Mutex
	logs []production.TimeLogEntry
}

func (r *memTimeLogRepo) FindByID(_ context.Context, id uuid.UUID) (*production.TimeLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.logs {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, shared.NewNotFoundError("time log")
}

func (r *memTimeLogRepo) FindAll(_ context.Context, f production.TimeLogFilter) ([]production.TimeLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.TimeLogEntry, 0)
	for _, e := range r.logs {
		if f.UserID != nil && e.UserID != *f.UserID {
			continue
		}
		if f.StageID != nil && e.StageID != *f.StageID {
			continue
		}
		if f.BatchID != nil && (e.BatchID == nil || *e.BatchID != *f.BatchID) {
			continue
		}
		if f.From != nil && e.CompletedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CompletedAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memTimeLogRepo) Create(_ context.Context, entry *production.TimeLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *memTimeLogRepo) Save(_ context.Context, entry *production.TimeLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.logs {
		if e.ID == entry.ID {
			r.logs[i] = *entry
			return nil
		}
	}
	return shared.NewNotFoundError("time log")
}

func (r *memTimeLogRepo) all() []production.TimeLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]production.TimeLogEntry, len(r.logs))
	copy(out, r.logs)
	return out
}

// memInventory is an in-memory InventoryHandoff
type memInventory struct {
	mu       sync.Mutex
	receipts []production.InventoryReceipt
}

func (r *memInventory) Receive(_ context.Context, receipt production.InventoryReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.receipts {
		if existing.FrameID == receipt.FrameID {
			return shared.NewConflictError("frame %s was already received into inventory", receipt.FrameID)
		}
	}
	r.receipts = append(r.receipts, receipt)
	return nil
}

// fakeOrders is a fixed OrderSource
type fakeOrders struct {
	items map[uuid.UUID][]production.OrderItem
}

func (o *fakeOrders) FindItemsByOrderIDs(_ context.Context, ids []uuid.UUID) ([]production.OrderItem, error) {
	out := make([]production.OrderItem, 0)
	for _, id := range ids {
		out = append(out, o.items[id]...)
	}
	return out, nil
}

// fakeUsers is a fixed UserDirectory
type fakeUsers struct {
	workers map[uuid.UUID]production.Worker
}

func (u *fakeUsers) FindWorkers(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]production.Worker, error) {
	out := make(map[uuid.UUID]production.Worker)
	for _, id := range ids {
		if w, ok := u.workers[id]; ok {
			out[id] = w
		}
	}
	return out, nil
}

// fixture wires every service over in-memory repositories
type fixture struct {
	clock     *testClock
	publisher *MockEventPublisher

	stageRepo   *memStageRepo
	batchRepo   *memBatchRepo
	frameRepo   *memFrameRepo
	progress    *memProgressRepo
	sessions    *memSessionRepo
	timeLogs    *memTimeLogRepo
	inventory   *memInventory
	orders      *fakeOrders
	users       *fakeUsers
	stageByName map[string]production.Stage

	stageSvc      *StageService
	timerSvc      *TimerService
	timeLogSvc    *TimeLogService
	batchSvc      *BatchService
	progressSvc   *ProgressService
	transitionSvc *TransitionService
	reportSvc     *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:     &testClock{now: testStart},
		publisher: NewMockEventPublisher(),
		stageRepo: newMemStageRepo(),
		batchRepo: &memBatchRepo{batches: map[uuid.UUID]production.Batch{}},
		frameRepo: &memFrameRepo{frames: map[uuid.UUID]production.Frame{}},
		progress:  &memProgressRepo{entries: map[progressKey]production.StageProgress{}},
		sessions:  &memSessionRepo{sessions: map[uuid.UUID]production.TimerSession{}},
		timeLogs:  &memTimeLogRepo{},
		inventory: &memInventory{},
		orders:    &fakeOrders{items: map[uuid.UUID][]production.OrderItem{}},
		users:     &fakeUsers{workers: map[uuid.UUID]production.Worker{}},
	}
	f.stageRepo.inProduction = func() bool {
		return len(f.frameRepo.list(func(fr production.Frame) bool { return !fr.IsInInventory() })) > 0
	}
	logger := zap.NewNop()
	locker := lock.NewMemoryLocker(time.Second)
	txScope := NewNoOpTransactionScope(f.batchRepo, f.frameRepo, f.progress, f.sessions, f.timeLogs, f.inventory)

	f.stageSvc = NewStageService(f.stageRepo, logger)
	f.stageSvc.SetClock(f.clock.Now)
	seeded, err := f.stageSvc.EnsureDefaults(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, seeded)

	f.stageByName = map[string]production.Stage{}
	stages, err := f.stageRepo.FindAll(context.Background())
	require.NoError(t, err)
	for _, s := range stages {
		f.stageByName[s.Name] = s
	}

	f.timerSvc = NewTimerService(f.sessions, f.batchRepo, f.stageSvc, f.users, txScope, locker, logger)
	f.timerSvc.SetClock(f.clock.Now)
	f.timerSvc.SetEventPublisher(f.publisher)

	f.timeLogSvc = NewTimeLogService(f.timeLogs, f.batchRepo, f.stageSvc, logger)
	f.timeLogSvc.SetClock(f.clock.Now)

	f.batchSvc = NewBatchService(f.batchRepo, f.frameRepo, f.progress, f.orders, f.stageSvc, txScope, logger)
	f.batchSvc.SetClock(f.clock.Now)
	f.batchSvc.SetEventPublisher(f.publisher)

	f.progressSvc = NewProgressService(f.batchRepo, f.frameRepo, f.progress, f.stageSvc, f.timerSvc, locker, logger)
	f.progressSvc.SetClock(f.clock.Now)
	f.progressSvc.SetEventPublisher(f.publisher)

	f.transitionSvc = NewTransitionService(f.batchRepo, f.frameRepo, f.progress, f.stageSvc, f.timerSvc, txScope, locker, logger)
	f.transitionSvc.SetClock(f.clock.Now)
	f.transitionSvc.SetEventPublisher(f.publisher)

	f.reportSvc = NewReportService(f.batchRepo, f.frameRepo, f.progress, f.timeLogs, f.sessions, f.users, f.stageSvc)
	f.reportSvc.SetClock(f.clock.Now)
	return f
}

func (f *fixture) stage(name string) production.Stage {
	return f.stageByName[name]
}

func (f *fixture) addWorker(name string, rate string) uuid.UUID {
	id := uuid.New()
	f.users.workers[id] = production.Worker{ID: id, Name: name, HourlyRate: decimal.RequireFromString(rate)}
	return id
}

// newBatch creates a batch from one order carrying items given as sku -> qty
func (f *fixture) newBatch(t *testing.T, items map[string]int) *BatchResponse {
	t.Helper()
	orderID := uuid.New()
	for sku, qty := range items {
		f.orders.items[orderID] = append(f.orders.items[orderID], production.OrderItem{
			ID: uuid.New(), OrderID: orderID, SKU: sku, Quantity: qty, Price: decimal.NewFromInt(10),
		})
	}
	batch, err := f.batchSvc.Create(context.Background(), CreateBatchRequest{Name: "Batch " + orderID.String()[:8], OrderIDs: []uuid.UUID{orderID}}, uuid.New())
	require.NoError(t, err)
	return batch
}

func (f *fixture) frames(t *testing.T, batchID uuid.UUID) []FrameResponse {
	t.Helper()
	resp, err := f.batchSvc.ListFrames(context.Background(), batchID, nil)
	require.NoError(t, err)
	return resp.Frames
}

func intPtr(v int) *int { return &v }
