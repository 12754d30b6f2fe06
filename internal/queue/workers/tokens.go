package workers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/flashdeckhq/flashdeck/internal/auth"
)

// TokenWorker garbage-collects expired API tokens. The task is idempotent;
// a rerun with nothing expired deletes zero rows.
type TokenWorker struct {
	tokens *auth.TokenService
}

func NewTokenWorker(tokens *auth.TokenService) *TokenWorker {
	return &TokenWorker{tokens: tokens}
}

func (w *TokenWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	deleted, err := w.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	slog.Info("expired tokens cleaned up", "deleted", deleted)
	return nil
}
