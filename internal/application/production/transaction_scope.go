package production

import (
	"context"

	"github.com/frameshop/backend/internal/domain/production"
)

// TransactionScope provides transactional access to production repositories.
// All repository operations inside Execute are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction. An error from fn rolls
	// the transaction back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories that share one transaction.
//
// The writes that must stay atomic are:
//   - batch creation with its frames and their first ledger entries
//   - stopping a timer: the time log insert and the session delete
//   - a stage move: the frame update and the new ledger entry
//   - an inventory handoff: the frame update, the receipt and the batch completion
type TransactionalRepositories interface {
	Batches() production.BatchRepository
	Frames() production.FrameRepository
	Progress() production.ProgressRepository
	Sessions() production.TimerSessionRepository
	TimeLogs() production.TimeLogRepository
	Inventory() production.InventoryHandoff
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// It backs tests and in-memory wiring.
type NoOpTransactionScope struct {
	batches   production.BatchRepository
	frames    production.FrameRepository
	progress  production.ProgressRepository
	sessions  production.TimerSessionRepository
	timeLogs  production.TimeLogRepository
	inventory production.InventoryHandoff
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	batches production.BatchRepository,
	frames production.FrameRepository,
	progress production.ProgressRepository,
	sessions production.TimerSessionRepository,
	timeLogs production.TimeLogRepository,
	inventory production.InventoryHandoff,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batches:   batches,
		frames:    frames,
		progress:  progress,
		sessions:  sessions,
		timeLogs:  timeLogs,
		inventory: inventory,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Batches() production.BatchRepository { return s.batches }
func (s *NoOpTransactionScope) Frames() production.FrameRepository { return s.frames }
func (s *NoOpTransactionScope) Progress() production.ProgressRepository { return s.progress }
func (s *NoOpTransactionScope) Sessions() production.TimerSessionRepository { return s.sessions }
func (s *NoOpTransactionScope) TimeLogs() production.TimeLogRepository { return s.timeLogs }
func (s *NoOpTransactionScope) Inventory() production.InventoryHandoff { return s.inventory }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
