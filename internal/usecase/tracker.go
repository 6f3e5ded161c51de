// Package usecase contains application use cases.
package usecase

import (
	"context"

	"github.com/barkain/scout/internal/domain"
	"github.com/barkain/scout/internal/tracker"
)

// TaskTracker is the tracker surface the use cases need.
type TaskTracker interface {
	Start(ctx context.Context, params domain.StartParams) (*domain.Task, error)
	CheckActive(ctx context.Context) (*domain.Task, error)
	Cancel(ctx context.Context) error
	Clear() error
	Snapshot() tracker.Snapshot
}
