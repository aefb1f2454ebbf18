package production

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a line item supplied by the order source
type OrderItem struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	SKU      string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// FrameGroup is the required quantity of one (size, color) pair
type FrameGroup struct {
	Size        string
	Color       string
	QtyRequired int
	SourceItems int
}

// GroupOrderItems groups items by parsed (size, color), summing quantities.
// The result is ordered by size rank then color. Items with a non-positive
// quantity contribute nothing.
func GroupOrderItems(items []OrderItem) []FrameGroup {
	type key struct{ size, color string }
	index := make(map[key]int)
	groups := make([]FrameGroup, 0)

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		size, color := ParseSKU(item.SKU)
		k := key{size, color}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, FrameGroup{Size: size, Color: color})
		}
		groups[i].QtyRequired += item.Quantity
		groups[i].SourceItems++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return lessAttributes(groups[i].Size, groups[i].Color, groups[j].Size, groups[j].Color)
	})
	return groups
}

// AggregateFrames materializes the frames of a batch from its order items.
// Every frame starts at firstStageID with nothing completed. An empty item list
// yields an empty frame set.
func AggregateFrames(batchID uuid.UUID, items []OrderItem, firstStageID uuid.UUID, at time.Time) []*Frame {
	groups := GroupOrderItems(items)
	frames := make([]*Frame, 0, len(groups))
	for _, g := range groups {
		frames = append(frames, newFrame(batchID, g, firstStageID, at))
	}
	return frames
}

// SortFrames orders frames for display by size rank then color
func SortFrames(frames []Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		return lessAttributes(frames[i].Size, frames[i].Color, frames[j].Size, frames[j].Color)
	})
}
