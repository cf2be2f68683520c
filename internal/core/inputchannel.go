package core

import (
	"sort"
	"sync"

	"moba/server/sync-service/internal/protocol"
)

// InputChannel is the bounded, sequence-numbered queue between an owning
// client's input capture and the server tick. The client side uses
// Enqueue/DrainForSend on its send cadence; the server side uses
// Receive/DrainForTick inside the tick step. Each role holds its own
// instance.
type InputChannel struct {
	mu         sync.Mutex
	maxPending int

	pending []protocol.InputMessage

	lastProcessed uint32
	hasProcessed  bool
}

func NewInputChannel(maxPending int) *InputChannel {
	return &InputChannel{maxPending: maxPending}
}

// Enqueue appends a captured sample. When the queue is full the oldest half
// is evicted — staying bounded matters more than old intent, and the recent
// samples are the ones the server can still use. Returns ErrBufferOverflow
// on eviction so the caller can surface a warning; the sample is enqueued
// either way.
func (c *InputChannel) Enqueue(sample protocol.InputMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if len(c.pending) >= c.maxPending {
		keep := len(c.pending) / 2
		c.pending = append(c.pending[:0], c.pending[len(c.pending)-keep:]...)
		err = ErrBufferOverflow
	}
	c.pending = append(c.pending, sample)
	return err
}

// DrainForSend returns every sample captured since the last drain, in
// enqueue order, and empties the queue. Called once per send cadence; an
// empty return means nothing to transmit this cycle.
func (c *InputChannel) DrainForSend() []protocol.InputMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}
	out := make([]protocol.InputMessage, len(c.pending))
	copy(out, c.pending)
	c.pending = c.pending[:0]
	return out
}

// Receive accepts a sample arriving from the network. Anything at or below
// the last processed sequence is a replay or a stale retransmit and is
// dropped, as is a duplicate of a sample already buffered. Returns whether
// the sample was kept.
func (c *InputChannel) Receive(sample protocol.InputMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasProcessed && sample.Sequence <= c.lastProcessed {
		return false
	}
	for _, buffered := range c.pending {
		if buffered.Sequence == sample.Sequence {
			return false
		}
	}
	if len(c.pending) >= c.maxPending {
		keep := len(c.pending) / 2
		c.pending = append(c.pending[:0], c.pending[len(c.pending)-keep:]...)
	}
	c.pending = append(c.pending, sample)
	return true
}

// DrainForTick returns the buffered samples in ascending sequence order and
// advances the processed watermark past them. A sequence number returned
// here will never be returned again.
func (c *InputChannel) DrainForTick() []protocol.InputMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}
	out := make([]protocol.InputMessage, len(c.pending))
	copy(out, c.pending)
	c.pending = c.pending[:0]

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	c.lastProcessed = out[len(out)-1].Sequence
	c.hasProcessed = true
	return out
}

// LastProcessed reports the highest sequence the server has drained, used
// to ack inputs in outgoing snapshots.
func (c *InputChannel) LastProcessed() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastProcessed
}

// Len reports how many samples are waiting.
func (c *InputChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
