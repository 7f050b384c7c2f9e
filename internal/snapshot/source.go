package snapshot

import (
	"context"

	"cargonav/internal/model"
)

// Source supplies the immutable input of one optimization run. A
// snapshot is assembled once per run; the engine never writes back.
type Source interface {
	Snapshot(ctx context.Context, date string) (*model.Snapshot, error)
}
