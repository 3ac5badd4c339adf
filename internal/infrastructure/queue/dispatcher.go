package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes inbound broker messages to a fixed set of workers using
// consistent hashing on the publishing peer, preserving per-peer arrival
// order while keeping the broker reader non-blocking. It also keeps distinct
// consumers from fighting over a single mutable message callback: every
// subscription feeds the dispatcher, the dispatcher owns the fan-out.
type Dispatcher struct {
	workers   []chan ports.InboundMessage
	processor ports.MessageProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.MessageProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.InboundMessage, numWorkers),
		processor: processor,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.InboundMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a message to the worker responsible for its publisher. When
// the worker's buffer is full the message is dropped: this is an at-most-once
// presence feed, and a newer update supersedes anything queued.
func (d *Dispatcher) Enqueue(topic string, payload []byte) {
	select {
	case d.workers[d.shardIndex(topic)] <- ports.InboundMessage{Topic: topic, Payload: payload}:
	default:
		d.log.Warn().Str("topic", topic).Msg("worker queue full, message dropped")
	}
}

// shardIndex maps a topic deterministically to a worker index, keyed by the
// publishing peer when the topic names one.
func (d *Dispatcher) shardIndex(topic string) int {
	key := topic
	if peerID, ok := domain.PeerFromLocationTopic(topic); ok {
		key = peerID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.InboundMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			d.processor.Process(msg.Topic, msg.Payload)
		}
	}
}
