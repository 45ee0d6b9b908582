// Package session drives one client control connection from accept to
// teardown: it frames inbound control messages, dispatches them by method,
// negotiates the media transport, and paces an RTP stream out over UDP while
// continuing to service control traffic on the same connection.
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rtspd/internal/config"
	"rtspd/internal/logger"
	"rtspd/internal/media"
	"rtspd/internal/metrics"
	"rtspd/internal/pool"
	"rtspd/internal/rtsp"
)

// fixedSSRC is the synchronization source every session announces. The
// original server hard-codes a single constant rather than randomizing per
// session; kept as-is since nothing in the protocol depends on SSRC
// uniqueness across the single concurrent session this deployment supports.
const fixedSSRC = 0x12345678

// Session is per-connection state. It owns the control socket, the two
// negotiated media UDP sockets, the open media file, and the RTP packet
// counters for the lifetime of one client.
type Session struct {
	ID        string
	RequestID string

	conn net.Conn
	log  *logger.Logger
	cfg  config.Config
	buf  *pool.BytePool

	inBuf []byte

	rtpConn  *net.UDPConn
	rtpPeer  *net.UDPAddr
	rtcpConn *net.UDPConn
	rtcpPeer *net.UDPAddr

	mediaReader *media.Reader

	seq       uint16
	timestamp uint32

	stopPacing     chan struct{}
	stopPacingOnce sync.Once
	pacingOnce     sync.Once
	pacingStarted  atomic.Bool
	pacingDone     chan struct{}
}

// New constructs a session for an accepted control connection.
func New(conn net.Conn, cfg config.Config, log *logger.Logger, buf *pool.BytePool) *Session {
	id := newSessionID()
	requestID := uuid.NewString()
	return &Session{
		ID:         id,
		RequestID:  requestID,
		conn:       conn,
		cfg:        cfg,
		buf:        buf,
		stopPacing: make(chan struct{}),
		pacingDone: make(chan struct{}),
		log:        log.With("session_id", id, "request_id", requestID, "remote_addr", conn.RemoteAddr().String()),
	}
}

// Serve reads and dispatches control requests until the connection closes,
// a read error occurs, or ctx is cancelled. It always closes the session's
// resources before returning.
func (s *Session) Serve(ctx context.Context) {
	metrics.RecordSessionStart()
	outcome := "eof"
	defer func() {
		s.close()
		metrics.RecordSessionEnd(outcome)
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	readBuf := s.buf.Get()
	defer s.buf.Put(readBuf)

	for {
		if s.cfg.IdleTimeout.AsDuration() > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout.AsDuration()))
		}

		n, err := s.conn.Read(readBuf)
		if n > 0 {
			s.inBuf = append(s.inBuf, readBuf[:n]...)
			s.drainRequests()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				outcome = "eof"
			} else if ctx.Err() != nil {
				outcome = "shutdown"
			} else {
				outcome = "error"
				s.log.Error("control read failed", "err", err)
			}
			return
		}
	}
}

// drainRequests dispatches every complete request currently buffered,
// stopping at the first incomplete one.
func (s *Session) drainRequests() {
	for {
		idx := strings.Index(string(s.inBuf), rtsp.Delimiter)
		if idx < 0 {
			return
		}
		msgLen := idx + len(rtsp.Delimiter)
		raw := string(s.inBuf[:msgLen])
		s.inBuf = s.inBuf[msgLen:]

		req, err := rtsp.ParseRequest(raw)
		if err != nil {
			s.log.Warn("parse error", "err", err)
			metrics.RecordParseError()
			s.sendReply(rtsp.Reply{Status: rtsp.StatusBadRequest})
			return
		}

		metrics.RecordRequest(req.Method.String())
		reply := s.dispatch(req)
		s.sendReply(reply)
	}
}

func (s *Session) sendReply(reply rtsp.Reply) {
	if _, err := io.WriteString(s.conn, reply.String()); err != nil {
		s.log.Debug("reply write failed", "err", err)
	}
}

// close releases every resource the session owns: cancels the pacer,
// closes both media sockets, and releases the file handle.
func (s *Session) close() {
	s.stopPacingOnce.Do(func() { close(s.stopPacing) })
	if s.pacingStarted.Load() {
		<-s.pacingDone
	}

	if s.mediaReader != nil {
		_ = s.mediaReader.Close()
		s.mediaReader = nil
	}
	if s.rtpConn != nil {
		_ = s.rtpConn.Close()
	}
	if s.rtcpConn != nil {
		_ = s.rtcpConn.Close()
	}
}

var errNoClientIP = errors.New("session: control socket has no remote address")

func clientIP(conn net.Conn) (net.IP, error) {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok || addr == nil {
		return nil, errNoClientIP
	}
	return addr.IP, nil
}
