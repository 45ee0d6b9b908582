package session

import (
	"time"

	"rtspd/internal/metrics"
	"rtspd/internal/rtp"
)

// startPacing launches the single background goroutine that paces RTP
// emission for this session. It is idempotent: a second PLAY on an already
// streaming session is a no-op.
func (s *Session) startPacing() {
	s.pacingOnce.Do(func() {
		s.pacingStarted.Store(true)
		go s.pacingLoop()
	})
}

// pacingLoop ticks once every 1000/frame_rate milliseconds using a one-shot
// timer reset after each tick, rather than a free-running ticker, so a slow
// tick delays the next one instead of queuing up a burst to catch up.
func (s *Session) pacingLoop() {
	defer close(s.pacingDone)

	interval := time.Second / time.Duration(s.cfg.FrameRate)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stopPacing:
			return
		case <-timer.C:
		}

		start := time.Now()
		stop := s.tick()
		metrics.PacingTickDuration.Observe(time.Since(start).Seconds())
		if stop {
			return
		}

		select {
		case <-s.stopPacing:
			return
		default:
			timer.Reset(interval)
		}
	}
}

// tick reads one access unit and emits the packets needed to carry it. It
// returns true, after closing the media file, when the file has been
// exhausted (or cannot be read) and pacing should stop.
func (s *Session) tick() bool {
	au, err := s.mediaReader.Next()
	if err != nil {
		s.log.Warn("media read error, stopping pacer", "err", err)
		_ = s.mediaReader.Close()
		return true
	}
	if !au.Valid || len(au.Data) == 0 {
		s.log.Info("media file exhausted, stopping pacer")
		_ = s.mediaReader.Close()
		return true
	}

	s.timestamp += uint32(90000 / s.cfg.FrameRate)

	packets := rtp.BuildPackets(au.Data, rtp.Options{
		PayloadType: 96,
		SSRC:        fixedSSRC,
		Timestamp:   s.timestamp,
		StartSeq:    s.seq,
		MaxPayload:  s.cfg.MaxPayload,
	})
	s.seq += uint16(len(packets))

	kind := "single"
	if len(packets) > 1 {
		kind = "fragmented"
	}

	var payloadBytes int64
	for _, p := range packets {
		payloadBytes += int64(len(p.Payload))
		if _, err := s.rtpConn.WriteToUDP(p.Marshal(), s.rtpPeer); err != nil {
			s.log.Debug("rtp send failed", "err", err)
		}
	}
	metrics.RecordPacketsSent(kind, len(packets), payloadBytes)

	return false
}
