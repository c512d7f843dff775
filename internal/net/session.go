package net

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/antilag/internal/permission"
	"go.uber.org/zap"
)

const (
	maxLineLen   = 1024
	writeTimeout = 10 * time.Second
)

// SessionState tracks the console login state machine.
type SessionState int32

const (
	StateLogin SessionState = iota
	StateReady
	StateDisconnecting
)

// Session represents one operator console connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID    uint64
	conn  net.Conn
	codec *Codec
	state atomic.Int32

	InQueue  chan string // game loop reads decoded lines from here
	OutQueue chan []byte // writer goroutine reads from here

	IP       string
	Operator *permission.Operator // set after login (game loop only)

	outBuf [][]byte // buffered lines, flushed by OutputSystem (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	onClose   func()

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, codec *Codec, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		codec:    codec,
		InQueue:  make(chan string, inSize),
		OutQueue: make(chan []byte, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(StateLogin))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) SetState(st SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers one line for sending. The line is not written to TCP until
// FlushOutput is called by OutputSystem.
// Called only from the game loop goroutine — no lock needed on outBuf.
func (s *Session) Send(line string) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, append(s.codec.Encode(line), '\r', '\n'))
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("輸出佇列已滿，斷開慢速連線")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop runs in its own goroutine. It splits the stream into lines,
// decodes them, and pushes them onto InQueue for the game loop.
func (s *Session) readLoop() {
	defer s.Close()

	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 256), maxLineLen)
	for sc.Scan() {
		line := s.codec.Decode(sc.Bytes())
		// Block until InQueue has space or session closes.
		select {
		case s.InQueue <- line:
		case <-s.closeCh:
			return
		}
	}
	if err := sc.Err(); err != nil && !s.closed.Load() {
		s.log.Debug("讀取錯誤", zap.Error(err))
	}
}

// writeLoop runs in its own goroutine and writes queued lines to the connection.
func (s *Session) writeLoop() {
	defer s.Close()
	for {
		select {
		case <-s.closeCh:
			return
		case data := <-s.OutQueue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := s.conn.Write(data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("寫入錯誤", zap.Error(err))
				}
				return
			}
		}
	}
}
