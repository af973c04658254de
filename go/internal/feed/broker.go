package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultBufferSize is the per-subscriber queue depth.
const DefaultBufferSize = 256

// Broker fans committed changes out to in-process subscribers. Publish
// never blocks: a subscriber whose queue is full is closed with ErrLagged.
// Changes reach every subscriber in the order Publish was called.
type Broker struct {
	mu         sync.Mutex
	subs       map[uint64]*Subscription
	nextID     uint64
	seq        int64
	bufferSize int
	closed     bool
}

func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broker{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new subscriber. Changes published before this call
// are not replayed.
func (b *Broker) Subscribe(filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		id:     b.nextID,
		broker: b,
		filter: filter,
		ch:     make(chan Change, b.bufferSize),
	}
	if b.closed {
		s.closeLocked(ErrClosed)
		return s
	}
	b.subs[s.id] = s
	return s
}

// Publish assigns the next sequence number and delivers the change to every
// matching subscriber.
func (b *Broker) Publish(c Change) Change {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return c
	}
	b.seq++
	c.Seq = b.seq
	for id, s := range b.subs {
		if !s.filter.Matches(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			log.Warn().
				Uint64("subscriber_id", id).
				Str("match_id", c.MatchID.String()).
				Msg("subscriber lagged, closing")
			delete(b.subs, id)
			s.closeLocked(ErrLagged)
		}
	}
	return c
}

// SubscriberCount reports the number of live subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription with ErrClosed.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.closeLocked(ErrClosed)
	}
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s.id)
	s.closeLocked(nil)
}

// Subscription is one subscriber's ordered stream of changes.
type Subscription struct {
	id     uint64
	broker *Broker
	filter Filter
	ch     chan Change
	err    error
	done   bool
}

// C returns the change stream. It is closed when the subscription ends;
// Err then tells why.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Err is nil after Close, ErrLagged after an overflow and ErrClosed when
// the broker shut down. Only meaningful once C is closed.
func (s *Subscription) Err() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return s.err
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
}

// closeLocked must be called with the broker lock held.
func (s *Subscription) closeLocked(err error) {
	if s.done {
		return
	}
	s.done = true
	s.err = err
	close(s.ch)
}

// BrokerPublisher publishes relayed changes into a local broker.
type BrokerPublisher struct {
	broker *Broker
}

func NewBrokerPublisher(b *Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: b}
}

func (p *BrokerPublisher) Publish(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.broker.Publish(c)
	return nil
}
