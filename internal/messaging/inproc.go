package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// dispatchTimeout bounds one fact's fan-out so a stuck external channel
// cannot stall the drainer.
const dispatchTimeout = 30 * time.Second

// InProcQueue is the default fact queue: a buffered channel drained by
// a background goroutine that hands each fact to the handler. Used when
// no service bus is configured, and as the seam in tests.
type InProcQueue struct {
	queue   chan models.Fact
	handler FactHandler
	wg      sync.WaitGroup
	once    sync.Once
	done    chan struct{}
}

// NewInProcQueue creates and starts an in-process fact queue
func NewInProcQueue(handler FactHandler, buffer int) *InProcQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	q := &InProcQueue{
		queue:   make(chan models.Fact, buffer),
		handler: handler,
		done:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.drain()
	return q
}

func (q *InProcQueue) drain() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			// Drain whatever is already queued before exiting
			for {
				select {
				case fact := <-q.queue:
					q.handle(fact)
				default:
					return
				}
			}
		case fact := <-q.queue:
			q.handle(fact)
		}
	}
}

func (q *InProcQueue) handle(fact models.Fact) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	q.handler(ctx, fact)
}

// Publish enqueues a fact. A full queue drops the fact with a log line
// rather than blocking the caller.
func (q *InProcQueue) Publish(ctx context.Context, fact models.Fact) {
	select {
	case q.queue <- fact:
	default:
		log.Error().
			Str("fact_type", fact.Type).
			Msg("Fact queue full, dropping fact")
	}
}

// Close stops the drainer after flushing queued facts
func (q *InProcQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
	return nil
}
