package tasks

import (
	"context"
	"log/slog"

	"github.com/Bodobolero/rssdeduper/app/feed"
)

// ResetRegistryTask empties the duplicate registry. It runs on the same
// worker as the processing tasks, so no pass can observe a half-cleared
// registry.
type ResetRegistryTask struct {
	Task
	registry *feed.Registry
}

func NewResetRegistryTask(registry *feed.Registry) *ResetRegistryTask {
	return &ResetRegistryTask{
		Task:     NewTask(TaskTypeResetRegistry, ""),
		registry: registry,
	}
}

func (t *ResetRegistryTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dropped := t.registry.Len()
	t.registry.Clear()

	slog.Info("Task completed",
		"type", "ResetRegistry",
		"duration", t.GetDuration(),
		"entries_dropped", dropped)

	return nil
}
