package command

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Processor applies a single inbound message
type Processor interface {
	Process(in Inbound) Result
}

// Queue buffers inbound messages and drains them on one worker goroutine,
// so the relay never waits on the engine lock and per-player order is kept.
type Queue struct {
	inbound   chan Inbound
	processor Processor
	wg        sync.WaitGroup
	running   atomic.Bool
	stopChan  chan struct{}

	// Metrics
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	dropped     atomic.Uint64
	rejected    atomic.Uint64 // processed but not applied
	avgWaitTime atomic.Int64  // nanoseconds, exponential moving average

	onDrop func()
}

// QueueConfig holds configuration for the command queue
type QueueConfig struct {
	BufferSize int    // Messages buffered before dropping
	OnDrop     func() // Called for every dropped message, e.g. a metrics counter
}

// DefaultQueueConfig returns sensible defaults for production
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BufferSize: 1000,
	}
}

// NewQueue creates a command queue
func NewQueue(processor Processor, config QueueConfig) *Queue {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultQueueConfig().BufferSize
	}

	return &Queue{
		inbound:   make(chan Inbound, config.BufferSize),
		processor: processor,
		stopChan:  make(chan struct{}),
		onDrop:    config.OnDrop,
	}
}

// Start launches the worker
func (q *Queue) Start() {
	if q.running.Swap(true) {
		return
	}

	log.Printf("🚀 Command queue starting, buffer size %d", cap(q.inbound))

	q.wg.Add(1)
	go q.worker()
}

// Stop drains what is already buffered and shuts down the worker
func (q *Queue) Stop() {
	if !q.running.Swap(false) {
		return
	}

	close(q.stopChan)
	q.wg.Wait()

	log.Printf("📊 Command queue stopped - enqueued: %d, processed: %d, dropped: %d",
		q.enqueued.Load(), q.processed.Load(), q.dropped.Load())
}

// Enqueue adds a message without blocking. It returns false when the buffer is full.
func (q *Queue) Enqueue(in Inbound) bool {
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = time.Now()
	}

	select {
	case q.inbound <- in:
		q.enqueued.Add(1)
		return true
	default:
		n := q.dropped.Add(1)
		if q.onDrop != nil {
			q.onDrop()
		}
		if n%100 == 1 {
			log.Printf("⚠️ Command queue full, dropped %s from %s (total dropped: %d)", in.Kind, in.PlayerID, n)
		}
		return false
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopChan:
			for {
				select {
				case in := <-q.inbound:
					q.handle(in)
				default:
					return
				}
			}
		case in := <-q.inbound:
			q.handle(in)
		}
	}
}

func (q *Queue) handle(in Inbound) {
	waitTime := time.Since(in.ReceivedAt)
	q.updateAvgWaitTime(waitTime)

	if waitTime > 100*time.Millisecond {
		log.Printf("⚠️ Command from %s waited %.1fms in queue",
			in.PlayerID, float64(waitTime.Microseconds())/1000)
	}

	if q.processor.Process(in) != Applied {
		q.rejected.Add(1)
	}
	q.processed.Add(1)
}

// updateAvgWaitTime updates the exponential moving average (alpha = 0.1)
func (q *Queue) updateAvgWaitTime(waitTime time.Duration) {
	current := q.avgWaitTime.Load()
	q.avgWaitTime.Store((current*9 + waitTime.Nanoseconds()) / 10)
}

// Stats returns current queue statistics
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued:       q.enqueued.Load(),
		Processed:      q.processed.Load(),
		Dropped:        q.dropped.Load(),
		Rejected:       q.rejected.Load(),
		Pending:        uint64(len(q.inbound)),
		BufferSize:     uint64(cap(q.inbound)),
		AvgWaitTimeMs:  float64(q.avgWaitTime.Load()) / 1e6,
		BufferUsagePct: float64(len(q.inbound)) / float64(cap(q.inbound)) * 100,
	}
}

// QueueStats holds queue metrics
type QueueStats struct {
	Enqueued       uint64  `json:"enqueued"`
	Processed      uint64  `json:"processed"`
	Dropped        uint64  `json:"dropped"`
	Rejected       uint64  `json:"rejected"`
	Pending        uint64  `json:"pending"`
	BufferSize     uint64  `json:"buffer_size"`
	AvgWaitTimeMs  float64 `json:"avg_wait_time_ms"`
	BufferUsagePct float64 `json:"buffer_usage_pct"`
}
