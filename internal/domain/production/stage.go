package production

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NewStageOrder is the order index of the implicit "new" stage. Frames never
// sit in it and workers never track time against it.
const NewStageOrder = 0

// DefaultStageColor is used when a stage is created without a color
const DefaultStageColor = "#9E9E9E"

var stageColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Stage is one ordered step of the production pipeline
type Stage struct {
	shared.BaseEntity
	Name  string
	Order int
	Color string
}

// NewStage creates a stage
func NewStage(name string, order int, color string) (*Stage, error) {
	s := &Stage{BaseEntity: shared.NewBaseEntity()}
	if err := s.apply(name, order, color); err != nil {
		return nil, err
	}
	return s, nil
}

// Update renames, recolors or reorders the stage
func (s *Stage) Update(name string, order int, color string, at time.Time) error {
	if err := s.apply(name, order, color); err != nil {
		return err
	}
	s.Touch(at)
	return nil
}

func (s *Stage) apply(name string, order int, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("stage name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewValidationError("stage name cannot exceed 100 characters")
	}
	if order < NewStageOrder {
		return shared.NewValidationError("stage order cannot be negative")
	}
	if color == "" {
		color = DefaultStageColor
	}
	if !stageColorPattern.MatchString(color) {
		return shared.NewValidationError("stage color must be a #RRGGBB hex value")
	}
	s.Name = name
	s.Order = order
	s.Color = strings.ToUpper(color)
	return nil
}

// IsWorkStage reports whether workers can track time and frames can sit here
func (s *Stage) IsWorkStage() bool {
	return s.Order > NewStageOrder
}

// DefaultStages returns the pipeline seeded into an empty database
func DefaultStages() []*Stage {
	seed := []struct {
		name  string
		order int
		color string
	}{
		{"New", 0, "#9E9E9E"},
		{"Cutting", 1, "#2196F3"},
		{"Sanding", 2, "#FF9800"},
		{"Assembly", 3, "#9C27B0"},
		{"Quality Check", 4, "#4CAF50"},
	}
	stages := make([]*Stage, 0, len(seed))
	for _, s := range seed {
		stage, _ := NewStage(s.name, s.order, s.color)
		stages = append(stages, stage)
	}
	return stages
}

// StageRegistry is an ordered, read-only view of the configured stages
type StageRegistry struct {
	stages []Stage
	byID   map[uuid.UUID]int
}

// NewStageRegistry builds a registry, sorting stages by order.
// Duplicate order indexes are rejected.
func NewStageRegistry(stages []Stage) (*StageRegistry, error) {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	r := &StageRegistry{stages: sorted, byID: make(map[uuid.UUID]int, len(sorted))}
	for i, s := range sorted {
		if i > 0 && sorted[i-1].Order == s.Order {
			return nil, shared.NewConflictError("stages %q and %q share order %d", sorted[i-1].Name, s.Name, s.Order)
		}
		r.byID[s.ID] = i
	}
	return r, nil
}

// CheckContiguous verifies that work stage orders run 1..N without gaps.
// Next, Terminal and ValidateForwardMove rely on it.
func (r *StageRegistry) CheckContiguous() error {
	want := NewStageOrder + 1
	for _, s := range r.stages {
		if !s.IsWorkStage() {
			continue
		}
		if s.Order != want {
			return shared.NewValidationError("stage orders must run from 1 without gaps: expected order %d but %q has order %d",
				want, s.Name, s.Order)
		}
		want++
	}
	return nil
}

// All returns every stage, ordered
func (r *StageRegistry) All() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// WorkerStages returns the stages shown as worker tabs (all except "new")
func (r *StageRegistry) WorkerStages() []Stage {
	out := make([]Stage, 0, len(r.stages))
	for _, s := range r.stages {
		if s.IsWorkStage() {
			out = append(out, s)
		}
	}
	return out
}

// ByID looks up a stage
func (r *StageRegistry) ByID(id uuid.UUID) (Stage, error) {
	i, ok := r.byID[id]
	if !ok {
		return Stage{}, shared.NewNotFoundError("stage")
	}
	return r.stages[i], nil
}

// FirstWorkStage returns the stage immediately after the "new" stage
func (r *StageRegistry) FirstWorkStage() (Stage, error) {
	for _, s := range r.stages {
		if s.IsWorkStage() {
			return s, nil
		}
	}
	return Stage{}, shared.NewStateError("no production stages are configured")
}

// Terminal returns the last stage of the pipeline
func (r *StageRegistry) Terminal() (Stage, error) {
	if len(r.stages) == 0 || !r.stages[len(r.stages)-1].IsWorkStage() {
		return Stage{}, shared.NewStateError("no production stages are configured")
	}
	return r.stages[len(r.stages)-1], nil
}

// IsTerminal reports whether id is the last stage
func (r *StageRegistry) IsTerminal(id uuid.UUID) bool {
	t, err := r.Terminal()
	return err == nil && t.ID == id
}

// Next returns the stage whose order directly follows id's. The second return
// is false when no such stage exists, which is always the case for the terminal stage.
func (r *StageRegistry) Next(id uuid.UUID) (Stage, bool, error) {
	i, ok := r.byID[id]
	if !ok {
		return Stage{}, false, shared.NewNotFoundError("stage")
	}
	if i+1 >= len(r.stages) || r.stages[i+1].Order != r.stages[i].Order+1 {
		return Stage{}, false, nil
	}
	return r.stages[i+1], true, nil
}

// TracksRejections reports whether rejections may be recorded at stage id
func (r *StageRegistry) TracksRejections(id uuid.UUID) bool {
	return r.IsTerminal(id)
}

// ValidateForwardMove checks that to is exactly one step after from
func (r *StageRegistry) ValidateForwardMove(fromID, toID uuid.UUID) (Stage, error) {
	from, err := r.ByID(fromID)
	if err != nil {
		return Stage{}, err
	}
	to, err := r.ByID(toID)
	if err != nil {
		return Stage{}, shared.NewNotFoundError("target stage")
	}
	if to.Order != from.Order+1 {
		return Stage{}, shared.NewStateError("cannot move from %s (order %d) to %s (order %d): frames advance one stage at a time",
			from.Name, from.Order, to.Name, to.Order)
	}
	return to, nil
}
