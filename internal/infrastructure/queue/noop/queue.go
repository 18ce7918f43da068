package noop

import (
	"context"
	"log/slog"
)

// Queue is used when no broker is configured. Summaries are then requested synchronously.
type Queue struct{}

func New() *Queue {
	return &Queue{}
}

func (Queue) PublishDocumentUploaded(_ context.Context, documentID int64) error {
	slog.Debug("queue_disabled_publish_skipped", "document_id", documentID)
	return nil
}

func (Queue) SubscribeDocumentUploaded(ctx context.Context, _ func(context.Context, int64) error) error {
	<-ctx.Done()
	return nil
}
