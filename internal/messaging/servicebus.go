package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/config"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// ServiceBus moves facts through an Azure Service Bus queue. The API
// process publishes after each committed transition; the worker process
// consumes and feeds the orchestrator. This keeps a slow or failing
// notification channel out of the request path entirely.
type ServiceBus struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBus creates a new Service Bus fact queue client
func NewServiceBus(cfg config.ServiceBusConfig) (*ServiceBus, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("service bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBus{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// Publish sends one fact to the queue. Transport failures are logged
// and dropped; the owning transaction has already committed.
func (s *ServiceBus) Publish(ctx context.Context, fact models.Fact) {
	data, err := json.Marshal(fact)
	if err != nil {
		log.Error().Err(err).Str("fact_type", fact.Type).Msg("Failed to marshal fact")
		return
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"fact_type": fact.Type,
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.sender.SendMessage(sendCtx, msg, nil); err != nil {
		log.Error().Err(err).Str("fact_type", fact.Type).Msg("Failed to publish fact to Service Bus")
	}
}

// ProcessFacts receives facts from the queue and hands each to the
// handler until the context is cancelled. Malformed messages are
// completed (dead messages should not loop forever); handler panics are
// not guarded, the handler is expected to swallow its own failures.
func (s *ServiceBus) ProcessFacts(ctx context.Context, handler FactHandler) error {
	receiver, err := s.client.NewReceiverForQueue(s.queueName, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error closing Service Bus receiver")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Error receiving facts, retrying")
			time.Sleep(2 * time.Second)
			continue
		}

		for _, message := range messages {
			var fact models.Fact
			if err := json.Unmarshal(message.Body, &fact); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Malformed fact message, completing")
				if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
					log.Error().Err(err).Msg("Failed to complete malformed message")
				}
				continue
			}

			handler(ctx, fact)

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete fact message")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *ServiceBus) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
