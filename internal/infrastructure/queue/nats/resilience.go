package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/infrastructure/resilience"
)

// Connection state errors clear up once the client reconnects; payload and
// subject errors never do.
var (
	transientNATSErrors = []error{
		nats.ErrNoServers,
		nats.ErrTimeout,
		nats.ErrConnectionClosed,
		nats.ErrConnectionDraining,
		nats.ErrConnectionReconnecting,
		nats.ErrDisconnected,
		nats.ErrSlowConsumer,
	}
	permanentNATSErrors = []error{
		nats.ErrMaxPayload,
		nats.ErrBadSubject,
		nats.ErrInvalidMsg,
	}
)

func classifyNATSError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	for _, target := range permanentNATSErrors {
		if errors.Is(err, target) {
			return resilience.ErrorClassification{}
		}
	}
	for _, target := range transientNATSErrors {
		if errors.Is(err, target) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ClassifyNetwork(err)
}

// asDomainError marks failures the caller may retry later as ErrTemporary.
func asDomainError(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if resilience.IsCircuitOpen(err) || classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
