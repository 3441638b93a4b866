package service

import (
	"context"

	"github.com/iliyamo/taskboard/internal/model"
)

// StatsService reports the dashboard counters.
type StatsService struct{ store TaskStore }

func NewStatsService(store TaskStore) *StatsService { return &StatsService{store: store} }

// Stats returns the user's counters. CompletionRate is a percentage and
// is 0 when the user has no tasks.
func (s *StatsService) Stats(ctx context.Context, userID string) (model.Stats, error) {
	return s.store.Stats(ctx, userID)
}
