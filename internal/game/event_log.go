package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024
	MaxEventsPerSec      = 2000
	MaxEventsPerPlayer   = 50 // per second
	BatchFlushSize       = 64
	BatchFlushInterval   = 250 * time.Millisecond
	PlayerLimiterCleanup = 5 * time.Minute
)

// EventLog is a bounded, rate-limited JSON-lines audit log.
// Emit never blocks, so it is safe to call from inside a tick.
type EventLog struct {
	events chan Event

	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    io.Writer
	closer io.Closer

	sequence     atomic.Uint64
	droppedCount atomic.Uint64
	writtenCount atomic.Uint64
}

type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates an idle event log. Nothing is recorded until Start.
func NewEventLog() *EventLog {
	return &EventLog{
		events:        make(chan Event, EventBufferSize),
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append and begins the writer goroutine.
// An empty path keeps counting events without writing them anywhere.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(io.Discard)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	el.closer = file
	return el.StartWriter(file)
}

// StartWriter begins writing events to w.
func (el *EventLog) StartWriter(w io.Writer) error {
	if !el.running.CompareAndSwap(false, true) {
		return nil
	}
	el.out = w

	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the output.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Swap(false) {
			return
		}
		close(el.stopChan)
		el.writerWg.Wait()

		if el.closer != nil {
			el.closer.Close()
		}
	})
}

// Emit queues an event. It returns false when the log is stopped, rate
// limited or full.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	if event.PlayerID != "" && !el.getPlayerLimiter(event.PlayerID).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	event.Sequence = el.sequence.Add(1)

	select {
	case el.events <- event:
		return true
	default:
		el.droppedCount.Add(1)
		return false
	}
}

// EmitSimple creates and emits an event
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, playerID string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, playerID, payload))
}

func (el *EventLog) getPlayerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.playerLimiters.Load(playerID); ok {
		entry := v.(*playerLimiterEntry)
		entry.lastUsed.Store(now)
		return entry.limiter
	}

	entry := &playerLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/5)}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(playerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches events and writes them as newline-delimited JSON
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	w := bufio.NewWriter(el.out)
	enc := json.NewEncoder(w)
	pending := 0

	flush := func() {
		if pending > 0 {
			w.Flush()
			pending = 0
		}
	}

	for {
		select {
		case ev := <-el.events:
			if err := enc.Encode(ev); err == nil {
				el.writtenCount.Add(1)
			}
			pending++
			if pending >= BatchFlushSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-el.stopChan:
			for {
				select {
				case ev := <-el.events:
					if err := enc.Encode(ev); err == nil {
						el.writtenCount.Add(1)
					}
					pending++
				default:
					flush()
					return
				}
			}
		}
	}
}

// cleanupLoop forgets limiters of players that went quiet
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupPlayerLimiters(time.Now().Add(-PlayerLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupPlayerLimiters(cutoff time.Time) {
	el.playerLimiters.Range(func(key, value interface{}) bool {
		if value.(*playerLimiterEntry).lastUsed.Load() < cutoff.UnixNano() {
			el.playerLimiters.Delete(key)
		}
		return true
	})
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return el.droppedCount.Load()
}

// Counts returns written and dropped events
func (el *EventLog) Counts() (written, dropped uint64) {
	return el.writtenCount.Load(), el.droppedCount.Load()
}
