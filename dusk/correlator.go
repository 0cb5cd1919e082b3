package dusk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/jellydator/ttlcache/v3"
)

// The correlator matches inbound component events to the one session waiting
// on the message the event references. It is shared by all sessions in the
// process and passed explicitly to both the publish path (sessions) and the
// event path (gateway, console).
//
// Properties:
// - a registered waiter is fulfilled at most once
// - an inbound event fulfills at most one waiter, including redeliveries of the same event
// - sessions on unrelated messages do not contend on a single lock

type CorrelatorSettings struct {
	ShardCount int
	// delivered event ids are remembered this long to drop redeliveries
	DeliveredEventTimeout  time.Duration
	DeliveredEventCapacity uint64
}

func DefaultCorrelatorSettings() *CorrelatorSettings {
	return &CorrelatorSettings{
		ShardCount:             32,
		DeliveredEventTimeout:  5 * time.Minute,
		DeliveredEventCapacity: 100_000,
	}
}

type DeliveryResult struct {
	Matched bool
	// the event was already matched once
	Duplicate bool
}

type correlatorShard struct {
	stateLock sync.Mutex
	// message id -> waiter
	waiters map[Id]*Waiter
}

type Correlator struct {
	ctx    context.Context
	cancel context.CancelFunc

	settings *CorrelatorSettings

	shards []*correlatorShard
	// event id -> message id
	deliveredEventIds *ttlcache.Cache[Id, Id]

	closeOnce sync.Once
	closed    atomic.Bool
}

func NewCorrelatorWithDefaults(ctx context.Context) *Correlator {
	return NewCorrelator(ctx, DefaultCorrelatorSettings())
}

func NewCorrelator(ctx context.Context, settings *CorrelatorSettings) *Correlator {
	cancelCtx, cancel := context.WithCancel(ctx)

	shardCount := max(1, settings.ShardCount)
	shards := make([]*correlatorShard, shardCount)
	for i := range shards {
		shards[i] = &correlatorShard{
			waiters: map[Id]*Waiter{},
		}
	}

	deliveredEventIds := ttlcache.New[Id, Id](
		ttlcache.WithTTL[Id, Id](settings.DeliveredEventTimeout),
		ttlcache.WithCapacity[Id, Id](settings.DeliveredEventCapacity),
		ttlcache.WithDisableTouchOnHit[Id, Id](),
	)
	go deliveredEventIds.Start()

	correlator := &Correlator{
		ctx:               cancelCtx,
		cancel:            cancel,
		settings:          settings,
		shards:            shards,
		deliveredEventIds: deliveredEventIds,
	}

	go func() {
		<-cancelCtx.Done()
		correlator.Close()
	}()

	return correlator
}

func (self *Correlator) shard(messageId Id) *correlatorShard {
	i := xxhash.Sum64(messageId[:]) % uint64(len(self.shards))
	return self.shards[i]
}

// creates the single-use response slot for `messageId`.
// Fails with `ErrAlreadyRegistered` when a live slot exists for the message.
func (self *Correlator) Register(messageId Id) (*Waiter, error) {
	shard := self.shard(messageId)

	shard.stateLock.Lock()
	defer shard.stateLock.Unlock()

	if self.closed.Load() {
		return nil, ErrCorrelatorClosed
	}
	if _, ok := shard.waiters[messageId]; ok {
		return nil, fmt.Errorf("%w: m(%s)", ErrAlreadyRegistered, messageId)
	}
	waiter := &Waiter{
		correlator: self,
		messageId:  messageId,
		result:     make(chan *waitResult, 1),
	}
	shard.waiters[messageId] = waiter
	glog.V(2).Infof("[correlator]register m(%s)\n", messageId)
	return waiter, nil
}

// Hands `event` to the waiter registered for its message, if any.
// When matched, `ack` acknowledges the event before the handoff. If the
// acknowledgement fails the waiter receives the error, since its slot is
// already consumed.
func (self *Correlator) Deliver(ctx context.Context, event *Event, ack Acknowledger) (DeliveryResult, error) {
	if !event.IsComponent() {
		return DeliveryResult{}, nil
	}
	messageId := *event.MessageId
	shard := self.shard(messageId)

	// events without an id cannot be recognized as redeliveries
	tracked := event.Id != (Id{})

	var waiter *Waiter
	duplicate := false
	func() {
		shard.stateLock.Lock()
		defer shard.stateLock.Unlock()

		// an event id always maps to the same message, so the shard lock also guards the delivered set for it
		if tracked && self.deliveredEventIds.Has(event.Id) {
			duplicate = true
			return
		}
		var ok bool
		waiter, ok = shard.waiters[messageId]
		if !ok {
			return
		}
		delete(shard.waiters, messageId)
		if tracked {
			self.deliveredEventIds.Set(event.Id, messageId, ttlcache.DefaultTTL)
		}
	}()

	if duplicate {
		glog.V(2).Infof("[correlator]duplicate %s\n", event)
		return DeliveryResult{Duplicate: true}, nil
	}
	if waiter == nil {
		glog.V(2).Infof("[correlator]unmatched %s\n", event)
		return DeliveryResult{}, nil
	}

	if ack != nil {
		if err := ack.AckDeferred(ctx, event); err != nil {
			err = fmt.Errorf("acknowledge: %w", err)
			glog.Infof("[correlator]ack error %s = %s\n", event, err)
			waiter.fulfill(nil, err)
			return DeliveryResult{Matched: true}, err
		}
	}
	waiter.fulfill(event, nil)
	glog.V(2).Infof("[correlator]matched %s\n", event)
	return DeliveryResult{Matched: true}, nil
}

// number of live slots
func (self *Correlator) Pending() int {
	pending := 0
	for _, shard := range self.shards {
		func() {
			shard.stateLock.Lock()
			defer shard.stateLock.Unlock()
			pending += len(shard.waiters)
		}()
	}
	return pending
}

// abandons all live slots. Waiters return `ErrWaitAbandoned`.
func (self *Correlator) Close() {
	self.closeOnce.Do(func() {
		self.closed.Store(true)
		self.cancel()
		for _, shard := range self.shards {
			func() {
				shard.stateLock.Lock()
				defer shard.stateLock.Unlock()
				for _, waiter := range shard.waiters {
					waiter.abandon()
				}
				clear(shard.waiters)
			}()
		}
		self.deliveredEventIds.Stop()
	})
}

func (self *Correlator) Done() <-chan struct{} {
	return self.ctx.Done()
}

type waitResult struct {
	event *Event
	err   error
}

// Single-use response slot for one message revision.
// `result` receives exactly one value, or is closed when the slot is abandoned.
// Only the party that removed the slot from its shard may write or close it.
type Waiter struct {
	correlator *Correlator
	messageId  Id
	result     chan *waitResult
}

func (self *Waiter) MessageId() Id {
	return self.messageId
}

func (self *Waiter) fulfill(event *Event, err error) {
	self.result <- &waitResult{
		event: event,
		err:   err,
	}
}

func (self *Waiter) abandon() {
	close(self.result)
}

// Blocks until the slot is fulfilled. `timeout < 0` waits without a deadline.
// On timeout or cancel the slot is discarded, unless a deliverer already took
// it, in which case the in-flight event is returned.
func (self *Waiter) Wait(ctx context.Context, timeout time.Duration) (*Event, error) {
	var timeoutC <-chan time.Time
	if 0 <= timeout {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case result, ok := <-self.result:
		return unpackWaitResult(result, ok)
	case <-ctx.Done():
		return self.cancelWait(ctx.Err())
	case <-timeoutC:
		return self.cancelWait(ErrWaitTimeout)
	}
}

func (self *Waiter) cancelWait(err error) (*Event, error) {
	if self.Discard() {
		return nil, err
	}
	result, ok := <-self.result
	return unpackWaitResult(result, ok)
}

func unpackWaitResult(result *waitResult, ok bool) (*Event, error) {
	if !ok {
		return nil, ErrWaitAbandoned
	}
	return result.event, result.err
}

// Removes the slot if it is still registered. Returns false when the slot was
// already taken by a delivery or discarded.
func (self *Waiter) Discard() bool {
	shard := self.correlator.shard(self.messageId)

	shard.stateLock.Lock()
	defer shard.stateLock.Unlock()

	if current, ok := shard.waiters[self.messageId]; ok && current == self {
		delete(shard.waiters, self.messageId)
		self.abandon()
		glog.V(2).Infof("[correlator]discard m(%s)\n", self.messageId)
		return true
	}
	return false
}
