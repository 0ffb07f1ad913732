package ratios

import (
	"context"

	"github.com/meridian-fin/meridian/internal/catalog"
)

// AverageUpdater owns the global average field on ratio definitions: it is
// the only writer. The average is the unweighted mean of every persisted
// calculated value across all companies and years, rounded to 4 digits.
type AverageUpdater struct {
	store ResultStore
}

// NewAverageUpdater constructs the updater.
func NewAverageUpdater(store ResultStore) *AverageUpdater {
	return &AverageUpdater{store: store}
}

// RefreshAll recomputes the average of each given ratio. Ratios with no
// persisted values keep their current average untouched. The operation is
// idempotent over unchanged data.
func (u *AverageUpdater) RefreshAll(ctx context.Context, defs []catalog.RatioDefinition) ([]AverageUpdate, error) {
	updates := make([]AverageUpdate, 0, len(defs))
	for _, def := range defs {
		update, refreshed, err := u.refresh(ctx, def)
		if err != nil {
			return nil, err
		}
		if refreshed {
			updates = append(updates, update)
		}
	}
	return updates, nil
}

func (u *AverageUpdater) refresh(ctx context.Context, def catalog.RatioDefinition) (AverageUpdate, bool, error) {
	values, err := u.store.RatioValues(ctx, def.ID)
	if err != nil {
		return AverageUpdate{}, false, err
	}
	if len(values) == 0 {
		return AverageUpdate{}, false, nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := Round4(sum / float64(len(values)))
	if err := u.store.SetGlobalAverage(ctx, def.ID, avg); err != nil {
		return AverageUpdate{}, false, err
	}
	return AverageUpdate{
		RatioID:  def.ID,
		Name:     def.Name,
		Previous: def.GlobalAverage,
		Updated:  avg,
		Samples:  len(values),
	}, true, nil
}
