package production

import (
	"context"
	"sort"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportService derives batch and stage statistics from time logs, open
// timer sessions and the progress ledger. It holds no state of its own.
type ReportService struct {
	batches  production.BatchRepository
	frames   production.FrameRepository
	progress production.ProgressRepository
	timeLogs production.TimeLogRepository
	sessions production.TimerSessionRepository
	users    production.UserDirectory
	stages   StageCatalog
	now      Clock
}

// NewReportService creates a new ReportService
func NewReportService(
	batches production.BatchRepository,
	frames production.FrameRepository,
	progress production.ProgressRepository,
	timeLogs production.TimeLogRepository,
	sessions production.TimerSessionRepository,
	users production.UserDirectory,
	stages StageCatalog,
) *ReportService {
	return &ReportService{
		batches:  batches,
		frames:   frames,
		progress: progress,
		timeLogs: timeLogs,
		sessions: sessions,
		users:    users,
		stages:   stages,
		now:      time.Now,
	}
}

// SetClock replaces the time source
func (s *ReportService) SetClock(now Clock) {
	s.now = now
}

// workInterval is a logged or live stretch of work
type workInterval struct {
	userID    uuid.UUID
	stageID   uuid.UUID
	duration  time.Duration
	processed int
	rejected  int
	open      bool
}

func fromLogs(entries []production.TimeLogEntry) []workInterval {
	out := make([]workInterval, len(entries))
	for i, e := range entries {
		out[i] = workInterval{
			userID:    e.UserID,
			stageID:   e.StageID,
			duration:  e.Duration,
			processed: e.ItemsProcessed,
			rejected:  e.ItemsRejected,
		}
	}
	return out
}

// openSessionsOf returns the open sessions attributed to the batch
func (s *ReportService) openSessionsOf(ctx context.Context, batchID uuid.UUID) ([]production.TimerSession, error) {
	sessions, err := s.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]production.TimerSession, 0)
	for _, session := range sessions {
		if session.BatchID != nil && *session.BatchID == batchID {
			out = append(out, session)
		}
	}
	return out, nil
}

// BatchStats returns the frame distribution and live hours of a batch
func (s *ReportService) BatchStats(ctx context.Context, batchID uuid.UUID) (_ *BatchStatsResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "batch_stats", telemetry.SpanAttrBatchID, batchID)
	defer telemetry.EndSpan(span, &err)

	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	frames, err := s.frames.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(frames))
	for i, f := range frames {
		ids[i] = f.ID
	}
	entries, err := s.progress.FindByFrames(ctx, ids)
	if err != nil {
		return nil, err
	}
	ledger := indexProgress(entries)
	logs, err := s.timeLogs.FindAll(ctx, production.TimeLogFilter{BatchID: &batchID})
	if err != nil {
		return nil, err
	}
	open, err := s.openSessionsOf(ctx, batchID)
	if err != nil {
		return nil, err
	}

	resp := &BatchStatsResponse{
		BatchID:       batchID,
		Status:        batch.Status.String(),
		TotalFrames:   len(frames),
		ActiveWorkers: len(open),
		Stages:        []StageStats{},
	}
	stageIndex := make(map[uuid.UUID]int)
	for _, stage := range registry.WorkerStages() {
		stageIndex[stage.ID] = len(resp.Stages)
		resp.Stages = append(resp.Stages, StageStats{StageID: stage.ID, StageName: stage.Name, Order: stage.Order})
	}
	for _, session := range open {
		if i, ok := stageIndex[session.StageID]; ok {
			resp.Stages[i].ActiveWorkers++
		}
	}

	for _, f := range frames {
		resp.TotalRequired += f.QtyRequired
		if f.IsInInventory() {
			resp.FramesInInventory++
			resp.UnitsInInventory += f.QtyGood
			continue
		}
		i, ok := stageIndex[f.CurrentStageID]
		if !ok {
			continue
		}
		st := &resp.Stages[i]
		st.FrameCount++
		st.QtyRequired += f.QtyRequired
		if entry, ok := ledger[progressKey{f.ID, f.CurrentStageID}]; ok {
			st.QtyCompleted += entry.QtyCompleted
			st.QtyRejected += entry.QtyRejected
			if entry.IsComplete(f.QtyRequired) {
				st.CompleteFrames++
			}
		}
	}

	now := s.now()
	var total time.Duration
	for _, e := range logs {
		total += e.Duration
	}
	for _, session := range open {
		total += session.Elapsed(now)
	}
	resp.TotalHours = hours(total)
	return resp, nil
}

// BatchReport returns hours, labor cost, throughput and rejection figures of
// a batch. Open sessions on the batch count with their live elapsed time.
func (s *ReportService) BatchReport(ctx context.Context, batchID uuid.UUID) (_ *BatchReportResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "batch_report", telemetry.SpanAttrBatchID, batchID)
	defer telemetry.EndSpan(span, &err)

	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.timeLogs.FindAll(ctx, production.TimeLogFilter{BatchID: &batchID})
	if err != nil {
		return nil, err
	}
	open, err := s.openSessionsOf(ctx, batchID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	intervals := fromLogs(logs)
	for _, session := range open {
		intervals = append(intervals, workInterval{
			userID:   session.UserID,
			stageID:  session.StageID,
			duration: session.Elapsed(now),
			open:     true,
		})
	}

	workers, err := s.workersOf(ctx, intervals)
	if err != nil {
		return nil, err
	}

	resp := &BatchReportResponse{
		BatchID:      batch.ID,
		BatchName:    batch.Name,
		OpenSessions: len(open),
		GeneratedAt:  now,
	}

	var total, live time.Duration
	var processed int
	cost := decimal.Zero
	for _, iv := range intervals {
		total += iv.duration
		if iv.open {
			live += iv.duration
		}
		processed += iv.processed
		cost = cost.Add(production.LaborCost(iv.duration, workers[iv.userID].HourlyRate))
	}
	resp.TotalHours = hours(total)
	resp.LiveHours = hours(live)
	resp.TotalLaborCost = cost.Round(2)
	resp.ItemsPerHour = round2(production.ItemsPerHour(processed, total))
	resp.Workers = workerBreakdown(intervals, workers)
	resp.Stages = stageBreakdown(intervals, workers, registry)

	completed, rejected, err := s.terminalUnits(ctx, batchID, registry)
	if err != nil {
		return nil, err
	}
	resp.CompletedUnits = completed
	resp.RejectedUnits = rejected
	resp.RejectionRate = round2(production.RejectionRate(rejected, completed) * 100)
	resp.AvgCostPerCompleted = decimal.Zero
	if completed > 0 {
		resp.AvgCostPerCompleted = cost.Div(decimal.NewFromInt(int64(completed))).Round(2)
	}
	return resp, nil
}

// terminalUnits sums the final-stage ledger of the batch. The batch rejection
// rate is the sum of rejected over the sum of completed, not an average of
// per-frame rates.
func (s *ReportService) terminalUnits(ctx context.Context, batchID uuid.UUID, registry *production.StageRegistry) (int, int, error) {
	terminal, err := registry.Terminal()
	if err != nil {
		return 0, 0, nil
	}
	frames, err := s.frames.FindByBatch(ctx, batchID)
	if err != nil {
		return 0, 0, err
	}
	ids := make([]uuid.UUID, len(frames))
	for i, f := range frames {
		ids[i] = f.ID
	}
	entries, err := s.progress.FindByFrames(ctx, ids)
	if err != nil {
		return 0, 0, err
	}
	completed, rejected := 0, 0
	for _, e := range entries {
		if e.StageID == terminal.ID {
			completed += e.QtyCompleted
			rejected += e.QtyRejected
		}
	}
	return completed, rejected, nil
}

// StageReport totals logged work per work stage, optionally bounded by
// completion time
func (s *ReportService) StageReport(ctx context.Context, filter StageReportFilter) (_ *StageReportResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "stage_report")
	defer telemetry.EndSpan(span, &err)

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.timeLogs.FindAll(ctx, production.TimeLogFilter{From: filter.From, To: filter.To})
	if err != nil {
		return nil, err
	}
	intervals := fromLogs(logs)
	workers, err := s.workersOf(ctx, intervals)
	if err != nil {
		return nil, err
	}

	var total time.Duration
	for _, iv := range intervals {
		total += iv.duration
	}
	return &StageReportResponse{
		From:       filter.From,
		To:         filter.To,
		Stages:     stageBreakdown(intervals, workers, registry),
		TotalHours: hours(total),
	}, nil
}

func (s *ReportService) workersOf(ctx context.Context, intervals []workInterval) (map[uuid.UUID]production.Worker, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, iv := range intervals {
		if _, ok := seen[iv.userID]; ok {
			continue
		}
		seen[iv.userID] = struct{}{}
		ids = append(ids, iv.userID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]production.Worker{}, nil
	}
	return s.users.FindWorkers(ctx, ids)
}

func workerBreakdown(intervals []workInterval, workers map[uuid.UUID]production.Worker) []WorkerBreakdown {
	type acc struct {
		duration  time.Duration
		processed int
		rejected  int
		open      bool
	}
	totals := make(map[uuid.UUID]*acc)
	order := make([]uuid.UUID, 0)
	for _, iv := range intervals {
		a, ok := totals[iv.userID]
		if !ok {
			a = &acc{}
			totals[iv.userID] = a
			order = append(order, iv.userID)
		}
		a.duration += iv.duration
		a.processed += iv.processed
		a.rejected += iv.rejected
		a.open = a.open || iv.open
	}

	out := make([]WorkerBreakdown, 0, len(order))
	for _, id := range order {
		a := totals[id]
		worker := workers[id]
		out = append(out, WorkerBreakdown{
			UserID:         id,
			UserName:       worker.Name,
			Hours:          hours(a.duration),
			LaborCost:      production.LaborCost(a.duration, worker.HourlyRate).Round(2),
			ItemsProcessed: a.processed,
			ItemsRejected:  a.rejected,
			ItemsPerHour:   round2(production.ItemsPerHour(a.processed, a.duration)),
			OpenSession:    a.open,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// stageBreakdown lists every work stage in pipeline order, including stages
// with no logged work
func stageBreakdown(intervals []workInterval, workers map[uuid.UUID]production.Worker, registry *production.StageRegistry) []StageBreakdown {
	type acc struct {
		duration  time.Duration
		cost      decimal.Decimal
		processed int
		rejected  int
		logs      int
	}
	totals := make(map[uuid.UUID]*acc)
	for _, iv := range intervals {
		a, ok := totals[iv.stageID]
		if !ok {
			a = &acc{cost: decimal.Zero}
			totals[iv.stageID] = a
		}
		a.duration += iv.duration
		a.cost = a.cost.Add(production.LaborCost(iv.duration, workers[iv.userID].HourlyRate))
		a.processed += iv.processed
		a.rejected += iv.rejected
		if !iv.open {
			a.logs++
		}
	}

	stages := registry.WorkerStages()
	out := make([]StageBreakdown, 0, len(stages))
	for _, stage := range stages {
		row := StageBreakdown{StageID: stage.ID, StageName: stage.Name, Order: stage.Order, LaborCost: decimal.Zero}
		if a, ok := totals[stage.ID]; ok {
			row.Hours = hours(a.duration)
			row.LaborCost = a.cost.Round(2)
			row.ItemsProcessed = a.processed
			row.ItemsRejected = a.rejected
			row.ItemsPerHour = round2(production.ItemsPerHour(a.processed, a.duration))
			row.LogCount = a.logs
			if a.processed > 0 {
				row.AvgMinutesPerItem = round2(a.duration.Minutes() / float64(a.processed))
			}
		}
		out = append(out, row)
	}
	return out
}
