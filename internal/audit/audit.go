// Package audit records operator force-clears to durable sinks off the game loop.
package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one clearlag execution.
type Entry struct {
	Operator  string    `json:"operator"`
	Removed   int       `json:"removed"`
	Broadcast bool      `json:"broadcast"`
	At        time.Time `json:"at"`
}

// Sink persists entries. Write is called from the recorder goroutine only.
type Sink interface {
	Write(e Entry) error
	Close() error
}

// Recorder fans entries out to its sinks on a dedicated goroutine so the game
// loop never waits on disk or database I/O.
type Recorder struct {
	sinks     []Sink
	queue     chan Entry
	done      chan struct{}
	mu        sync.RWMutex // guards closed and the close of queue
	closed    bool
	closeOnce sync.Once
	log       *zap.Logger
}

func NewRecorder(bufSize int, log *zap.Logger, sinks ...Sink) *Recorder {
	if bufSize <= 0 {
		bufSize = 1
	}
	r := &Recorder{
		sinks: sinks,
		queue: make(chan Entry, bufSize),
		done:  make(chan struct{}),
		log:   log,
	}
	go r.run()
	return r
}

// Record queues e. Never blocks: a full queue, or a closed recorder, drops
// the entry with a warning.
func (r *Recorder) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("稽核紀錄器已關閉，捨棄紀錄", zap.String("operator", e.Operator), zap.Int("removed", e.Removed))
		return
	}
	select {
	case r.queue <- e:
	default:
		r.log.Warn("稽核佇列已滿，捨棄紀錄", zap.String("operator", e.Operator), zap.Int("removed", e.Removed))
	}
}

// Close drains queued entries, then closes every sink.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		<-r.done
		for _, s := range r.sinks {
			if err := s.Close(); err != nil {
				r.log.Warn("稽核輸出關閉失敗", zap.Error(err))
			}
		}
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		for _, s := range r.sinks {
			if err := s.Write(e); err != nil {
				r.log.Error("稽核紀錄寫入失敗", zap.Error(err))
			}
		}
	}
}
