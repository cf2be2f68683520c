package client

import (
	"log"
	"sync"
	"time"

	"moba/server/sync-service/internal/core"
	"moba/server/sync-service/internal/protocol"
)

// SendFunc transmits one batch of input samples to the server.
type SendFunc func(batch *protocol.InputBatch)

// InputSender buffers captured inputs and flushes them on a fixed cadence,
// decoupled from the frame rate. Its ticker lives exactly as long as the
// owned entity: Stop tears it down synchronously so no flush can fire
// after despawn.
type InputSender struct {
	queue    *core.InputChannel
	send     SendFunc
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewInputSender(maxPending int, interval time.Duration, send SendFunc) *InputSender {
	return &InputSender{
		queue:    core.NewInputChannel(maxPending),
		send:     send,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Capture enqueues one frame's sample. An overflow evicts the oldest half
// of the queue; recent intent survives, and the condition is only worth a
// warning.
func (s *InputSender) Capture(sample protocol.InputMessage) {
	if err := s.queue.Enqueue(sample); err != nil {
		log.Printf("input sender: %v, evicted oldest half", err)
	}
}

// Run flushes the queue on the send cadence until Stop. A cycle with
// nothing buffered sends nothing.
func (s *InputSender) Run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Flush transmits everything buffered since the last flush. Exposed so
// tests can drive the cadence explicitly.
func (s *InputSender) Flush() {
	entries := s.queue.DrainForSend()
	if len(entries) == 0 {
		return
	}
	s.send(&protocol.InputBatch{Entries: entries})
}

// Stop cancels the send loop and waits for it to exit. Safe to call more
// than once. The timeout covers the case where Run was never started.
func (s *InputSender) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
}
