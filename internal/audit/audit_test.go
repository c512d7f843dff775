package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memSink struct {
	mu      sync.Mutex
	entries []Entry
	fail    bool
	closed  bool
}

func (s *memSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

func TestRecorder_FansOutAndDrains(t *testing.T) {
	a, b := &memSink{}, &memSink{fail: true}
	r := NewRecorder(8, zap.NewNop(), a, b)
	r.Record(Entry{Operator: "admin", Removed: 3})
	r.Record(Entry{Operator: "helper", Removed: 0, Broadcast: true})
	r.Close()
	r.Close() // idempotent

	if len(a.entries) != 2 {
		t.Fatalf("sink a got %d entries, want 2", len(a.entries))
	}
	if a.entries[0].At.IsZero() {
		t.Error("Record should stamp the entry time")
	}
	if !a.closed || !b.closed {
		t.Error("sinks not closed")
	}
}

// gateSink blocks every Write until release is closed.
type gateSink struct {
	memSink
	entered chan struct{}
	release chan struct{}
}

func (s *gateSink) Write(e Entry) error {
	s.entered <- struct{}{}
	<-s.release
	return s.memSink.Write(e)
}

func TestRecorder_FullQueueDrops(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &gateSink{entered: make(chan struct{}, 4), release: make(chan struct{})}
	r := NewRecorder(1, zap.New(core), sink)

	r.Record(Entry{Operator: "a", Removed: 1})
	// wait until the writer goroutine holds entry a
	<-sink.entered
	r.Record(Entry{Operator: "b", Removed: 2}) // fills the queue
	r.Record(Entry{Operator: "c", Removed: 3}) // dropped

	if n := logs.FilterMessage("稽核佇列已滿，捨棄紀錄").Len(); n != 1 {
		t.Fatalf("full-queue warnings = %d, want 1", n)
	}
	close(sink.release)
	r.Close()

	if len(sink.entries) != 2 || sink.entries[0].Operator != "a" || sink.entries[1].Operator != "b" {
		t.Fatalf("sink got %+v, want a then b", sink.entries)
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &memSink{}
	r := NewRecorder(1, zap.New(core), sink)
	r.Close()

	r.Record(Entry{Operator: "late", Removed: 9}) // must not panic

	if n := logs.FilterMessage("稽核紀錄器已關閉，捨棄紀錄").Len(); n != 1 {
		t.Fatalf("closed-recorder warnings = %d, want 1", n)
	}
	if len(sink.entries) != 0 {
		t.Fatalf("sink got %+v after close", sink.entries)
	}
}

func readZstdLines(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "clearlag")
	clock := time.Date(2026, 10, 18, 9, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(Entry{Operator: "admin", Removed: 5, At: clock}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Entry{Operator: "admin", Removed: 1, At: clock}); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(Entry{Operator: "helper", Removed: 7, At: clock}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	first := readZstdLines(t, w.PathForHour("2026-10-18-09"))
	if len(first) != 2 || first[0].Removed != 5 || first[1].Removed != 1 {
		t.Fatalf("09h file = %+v", first)
	}
	second := readZstdLines(t, w.PathForHour("2026-10-18-10"))
	if len(second) != 1 || second[0].Operator != "helper" {
		t.Fatalf("10h file = %+v", second)
	}
}
