package net

import (
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const msgServerFull = "Too many operators connected. Try again later."

// Server accepts console TCP connections and creates Sessions.
// New/dead sessions are communicated to the game loop via channels.
// At most maxSessions operators are connected at once.
type Server struct {
	listener    net.Listener
	nextID      atomic.Uint64
	live        atomic.Int32
	maxSessions int32
	newConns    chan *Session
	deadCh      chan uint64 // session IDs of dead sessions
	inSize      int
	outSize     int
	codec       *Codec
	log         *zap.Logger
	closeCh     chan struct{}
}

func NewServer(bindAddr string, maxSessions, inSize, outSize int, codec *Codec, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	if maxSessions <= 0 {
		maxSessions = 1
	}
	s := &Server{
		listener:    ln,
		maxSessions: int32(maxSessions),
		newConns:    make(chan *Session, 16),
		deadCh:      make(chan uint64, 16),
		inSize:      inSize,
		outSize:     outSize,
		codec:       codec,
		log:         log,
		closeCh:     make(chan struct{}),
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, creates
// sessions and pushes them onto the newConns channel.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("連線接受失敗", zap.Error(err))
			continue
		}

		if s.live.Add(1) > s.maxSessions {
			s.live.Add(-1)
			s.reject(conn)
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.inSize, s.outSize, s.codec, s.log)
		sess.onClose = func() {
			s.live.Add(-1)
			s.NotifyDead(id)
		}
		sess.Start()

		s.log.Info("管理連線建立", zap.Uint64("session", id), zap.String("ip", sess.IP))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("連線佇列已滿，拒絕新連線")
			sess.Close()
		}
	}
}

// reject tells a connection over the operator cap why it is dropped.
func (s *Server) reject(conn net.Conn) {
	s.log.Warn("管理連線已達上限，拒絕連線",
		zap.String("ip", conn.RemoteAddr().String()),
		zap.Int32("max", s.maxSessions),
	)
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, _ = conn.Write(append(s.codec.Encode(msgServerFull), '\r', '\n'))
	conn.Close()
}

// Live returns the number of open console sessions.
func (s *Server) Live() int { return int(s.live.Load()) }

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session ID to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session IDs.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
