package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docs-backend/internal/infrastructure/resilience"
)

const QueueGroup = "summarizers"

// documentUploaded is the wire payload of the upload event.
type documentUploaded struct {
	DocumentID int64     `json:"document_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	observer func(lag time.Duration)

	drainTimeout time.Duration
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	// OnDelivery observes the delay between publish and delivery.
	OnDelivery func(lag time.Duration)
	// DrainTimeout bounds how long shutdown waits for in-flight handlers.
	DrainTimeout time.Duration
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	drainTimeout := options.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = 30 * time.Second
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docs-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		observer: options.OnDelivery,

		drainTimeout: drainTimeout,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentUploaded(ctx context.Context, documentID int64) error {
	payload, err := encodeEvent(documentID, time.Now().UTC())
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return asDomainError("nats publish", err)
	}
	return nil
}

// SubscribeDocumentUploaded blocks until ctx is done, then drains the subscription and
// waits for in-flight handlers before returning.
func (q *Queue) SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, int64) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, QueueGroup, q.messageHandler(ctx, handler))
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	closed := sub.StatusChanged(nats.SubscriptionClosed)

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := waitClosed(closed, q.drainTimeout); err != nil {
		return err
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// messageHandler detaches handlers from ctx so messages still queued at shutdown are processed.
func (q *Queue) messageHandler(ctx context.Context, handler func(context.Context, int64) error) nats.MsgHandler {
	handlerCtx := context.WithoutCancel(ctx)
	return func(msg *nats.Msg) {
		event, err := decodeEvent(msg.Data)
		if err != nil {
			slog.Error("queue_message_invalid", "subject", msg.Subject, "error", err)
			return
		}
		if q.observer != nil && !event.UploadedAt.IsZero() {
			q.observer(time.Since(event.UploadedAt))
		}

		if err := handler(handlerCtx, event.DocumentID); err != nil {
			slog.Error("queue_handler_failed", "document_id", event.DocumentID, "error", err)
		}
	}
}

func waitClosed(closed <-chan nats.SubStatus, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-closed:
			if !ok {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("nats drain: handlers still running after %s", timeout)
		}
	}
}

func encodeEvent(documentID int64, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(documentUploaded{DocumentID: documentID, UploadedAt: at})
	if err != nil {
		return nil, fmt.Errorf("marshal upload event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (documentUploaded, error) {
	var event documentUploaded
	if err := json.Unmarshal(data, &event); err != nil {
		return documentUploaded{}, fmt.Errorf("unmarshal upload event: %w", err)
	}
	if event.DocumentID <= 0 {
		return documentUploaded{}, fmt.Errorf("upload event has no document id")
	}
	return event, nil
}
