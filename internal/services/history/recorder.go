package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/storage"
)

const (
	// DefaultListLimit is used when a caller asks for no particular limit
	DefaultListLimit = 20

	writeTimeout = 5 * time.Second
)

// Recorder persists final match results without blocking the session that
// reports them
type Recorder struct {
	storage storage.Storage
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewRecorder creates a Recorder
func NewRecorder(storage storage.Storage, logger *slog.Logger) *Recorder {
	return &Recorder{
		storage: storage,
		logger:  logger.With(slog.String("component", "history")),
	}
}

// Record stores result in the background. Failures are logged and dropped.
func (r *Recorder) Record(result model.MatchResult) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.storage.SaveMatchResult(ctx, &result); err != nil {
			r.logger.Error("failed to record match result",
				slog.String("room", string(result.RoomID)),
				slog.String("error", err.Error()))
			return
		}
		r.logger.Info("match result recorded",
			slog.String("room", string(result.RoomID)),
			slog.String("result_id", result.ID),
			slog.String("reason", string(result.Reason)))
	}()
}

// Wait blocks until every pending write has finished
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// List returns a player's most recent results, newest first
func (r *Recorder) List(ctx context.Context, player model.PlayerID, limit int) ([]*model.MatchResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > storage.DefaultHistoryLimit {
		limit = storage.DefaultHistoryLimit
	}
	return r.storage.ListMatchResults(ctx, player, limit)
}
