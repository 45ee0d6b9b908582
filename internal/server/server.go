// Package server owns the control-protocol listening socket: it accepts
// connections, applies admission control, and hands each connection to a new
// session controller.
package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"rtspd/internal/config"
	"rtspd/internal/logger"
	"rtspd/internal/metrics"
	"rtspd/internal/middleware"
	"rtspd/internal/pool"
	"rtspd/internal/session"
)

// refusalText is written, best-effort, to a connection rejected by admission
// control before it is closed. It carries no RTSP framing: a rejected client
// never got far enough to negotiate a session worth replying to in protocol.
const refusalText = "rtspd: connection refused, server is at capacity\n"

// Acceptor listens on a fixed TCP port and spawns one session per accepted
// connection. A single accept error never stops the loop.
type Acceptor struct {
	cfg config.Config
	log *logger.Logger

	rateLimiter    *middleware.RateLimiter
	sessionLimiter *middleware.ConnectionLimiter
	bufPool        *pool.BytePool

	sessions sync.Map // session id -> *session.Session
	wg       sync.WaitGroup
}

// New constructs an Acceptor from server configuration.
func New(cfg config.Config, log *logger.Logger) *Acceptor {
	a := &Acceptor{
		cfg:            cfg,
		log:            log,
		sessionLimiter: middleware.NewConnectionLimiter(cfg.SessionLimit.MaxTotal, cfg.SessionLimit.MaxPerIP),
		bufPool:        pool.New(cfg.ReadBuffer),
	}
	if cfg.RateLimit.Enabled {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst)
	}
	return a
}

// Run listens on cfg.ListenAddr and accepts connections until ctx is
// cancelled. It blocks until the listener closes.
func (a *Acceptor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	a.log.Info("accepting control connections", "addr", a.cfg.ListenAddr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.log.Error("accept failed", "err", err)
			continue
		}
		go a.handle(ctx, conn)
	}
}

// Wait blocks until every in-flight session has returned from Serve.
func (a *Acceptor) Wait() {
	a.wg.Wait()
}

// Close stops the rate limiter's background cleanup goroutine. Safe to call
// even when rate limiting is disabled.
func (a *Acceptor) Close() {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
}

// RateLimiter returns the admission-control rate limiter this Acceptor
// enforces, or nil if rate limiting is disabled. The HTTP admin surface uses
// this to report the limiter actually in effect, not a detached copy.
func (a *Acceptor) RateLimiter() *middleware.RateLimiter {
	return a.rateLimiter
}

// SessionLimiter returns the admission-control session limiter this Acceptor
// enforces, for the same reason RateLimiter does.
func (a *Acceptor) SessionLimiter() *middleware.ConnectionLimiter {
	return a.sessionLimiter
}

// SessionIDs returns the ids of currently active sessions, for the admin
// surface.
func (a *Acceptor) SessionIDs() []string {
	var ids []string
	a.sessions.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}

func (a *Acceptor) handle(ctx context.Context, conn net.Conn) {
	ip := hostOf(conn.RemoteAddr())

	if a.rateLimiter != nil {
		if err := a.rateLimiter.Allow(ip); err != nil {
			a.log.Warn("rejected by rate limit", "remote_ip", ip)
			metrics.RecordRateLimitRejection()
			io.WriteString(conn, refusalText)
			conn.Close()
			return
		}
	}

	if err := a.sessionLimiter.Acquire(ip); err != nil {
		a.log.Warn("rejected by session limit", "remote_ip", ip, "err", err)
		metrics.RecordSessionLimitRejection()
		io.WriteString(conn, refusalText)
		conn.Close()
		return
	}
	defer a.sessionLimiter.Release(ip)

	sess := session.New(conn, a.cfg, a.log, a.bufPool)
	a.sessions.Store(sess.ID, sess)
	defer a.sessions.Delete(sess.ID)

	a.wg.Add(1)
	defer a.wg.Done()

	sess.Serve(ctx)
}

// hostOf extracts the bare IP from a dialed TCP peer address, falling back
// to the address's full string form for anything unexpected.
func hostOf(addr net.Addr) string {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok && tcpAddr != nil {
		return tcpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return strings.TrimSpace(host)
}
