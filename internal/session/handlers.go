package session

import (
	"fmt"
	"net"

	"rtspd/internal/media"
	"rtspd/internal/rtsp"
)

// dispatch routes a decoded request to its handler and returns the reply to
// send. Every branch echoes the request's CSeq, matching invariant 5.
func (s *Session) dispatch(req rtsp.Request) rtsp.Reply {
	reply := rtsp.Reply{CSeq: req.CSeq, Method: req.Method}

	switch req.Method {
	case rtsp.MethodOptions:
		reply.Status = rtsp.StatusOK
		reply.Options = rtsp.SupportedMethods
	case rtsp.MethodDescribe:
		reply.Status = rtsp.StatusOK
		params := s.sdpParams()
		reply.ContentBase = params.ContentBase()
		reply.GenerateSDP(s.ID, params)
	case rtsp.MethodSetup:
		s.handleSetup(req, &reply)
	case rtsp.MethodPlay:
		s.handlePlay(req, &reply)
	case rtsp.MethodTeardown:
		s.handleTeardown(req, &reply)
	default:
		reply.Status = rtsp.StatusMethodNotAllowed
	}

	return reply
}

func (s *Session) sdpParams() rtsp.SDPParams {
	return rtsp.SDPParams{
		ServerHost:  s.cfg.SDP.ServerHost,
		ControlPort: s.cfg.SDP.ControlPort,
		StreamPath:  s.cfg.SDP.StreamPath,
	}
}

func (s *Session) handleSetup(req rtsp.Request, reply *rtsp.Reply) {
	reply.Status = rtsp.StatusOK
	reply.SessionID = s.ID
	reply.TransportReply = fmt.Sprintf(
		"RTP/AVP;unicast;client_port=%d-%d;server_port=%d-%d",
		req.ClientPort[0], req.ClientPort[1], s.cfg.RTPPort, s.cfg.RTCPPort,
	)

	ip, err := clientIP(s.conn)
	if err != nil {
		s.log.Warn("setup: no client ip", "err", err)
		reply.Status = rtsp.StatusUnsupportedTransport
		return
	}

	if s.rtpConn == nil {
		conn, openErr := net.ListenUDP("udp", &net.UDPAddr{Port: s.cfg.RTPPort})
		if openErr != nil {
			s.log.Error("setup: rtp bind failed", "err", openErr)
			reply.Status = rtsp.StatusInternalServerError
			return
		}
		s.rtpConn = conn
		s.rtpPeer = &net.UDPAddr{IP: ip, Port: int(req.ClientPort[0])}
	}
	if s.rtcpConn == nil {
		conn, openErr := net.ListenUDP("udp", &net.UDPAddr{Port: s.cfg.RTCPPort})
		if openErr != nil {
			s.log.Error("setup: rtcp bind failed", "err", openErr)
			reply.Status = rtsp.StatusInternalServerError
			return
		}
		s.rtcpConn = conn
		s.rtcpPeer = &net.UDPAddr{IP: ip, Port: int(req.ClientPort[1])}
	}
}

func (s *Session) handlePlay(req rtsp.Request, reply *rtsp.Reply) {
	reply.Status = rtsp.StatusOK
	reply.SessionID = s.ID
	reply.Range = "npt=0.000-9.000"

	if s.rtpConn == nil {
		s.log.Warn("play before setup; ignoring")
		return
	}

	if s.mediaReader == nil {
		reader, err := media.Open(s.cfg.MediaFile)
		if err != nil {
			s.log.Warn("play: open media file failed", "err", err)
			return
		}
		s.mediaReader = reader
	}

	s.startPacing()
}

func (s *Session) handleTeardown(req rtsp.Request, reply *rtsp.Reply) {
	reply.Status = rtsp.StatusOK
	reply.SessionID = s.ID

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
		s.rtpConn = nil
	}
	if s.rtcpConn != nil {
		_ = s.rtcpConn.Close()
		s.rtcpConn = nil
	}
}
