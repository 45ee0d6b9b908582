package rtsp

import (
	"strconv"
	"strings"
)

// SDPParams carries the server-identity fields the session description and
// the DESCRIBE reply's Content-Base reference. Defaults match the fixed
// single-asset deployment; config.Config lets an operator override them
// without touching this package.
type SDPParams struct {
	ServerHost  string // announced in the "o=" line and Content-Base
	ControlPort int    // announced in Content-Base
	StreamPath  string // announced in Content-Base, e.g. "live"
}

// DefaultSDPParams matches the fixed deployment the original server assumed.
func DefaultSDPParams() SDPParams {
	return SDPParams{ServerHost: "127.0.0.1", ControlPort: 8554, StreamPath: "live"}
}

// ContentBase renders the rtsp:// URL advertised in the DESCRIBE reply.
func (p SDPParams) ContentBase() string {
	return "rtsp://" + p.ServerHost + ":" + strconv.Itoa(p.ControlPort) + "/" + p.StreamPath
}

// Reply is an encoded server response, composed by a handler and consumed
// once by the writer.
type Reply struct {
	Status         StatusCode
	Method         Method
	CSeq           int
	SessionID      string
	Options        string // Public header value, OPTIONS only
	TransportReply string // Transport header value, SETUP only
	Range          string // Range header value, PLAY only
	ContentBase    string // Content-Base header value, DESCRIBE only
	SDP            string // body, DESCRIBE only
}

// GenerateSDP fills in the session-description body for a DESCRIBE reply
// using the fixed single H.264 video track template.
func (r *Reply) GenerateSDP(sessionID string, params SDPParams) {
	var b strings.Builder
	b.WriteString("v=0\r\n")
	b.WriteString("o=- " + sessionID + " 1 IN IP4 " + params.ServerHost + "\r\n")
	b.WriteString("s=Simple RTSP Server\r\n")
	b.WriteString("c=IN IP4 0.0.0.0\r\n")
	b.WriteString("t=0 0\r\n")
	b.WriteString("m=video 0 RTP/AVP 96\r\n")
	b.WriteString("a=rtpmap:96 H264/90000\r\n")
	b.WriteString("a=fmtp:96 packetization-mode=1\r\n")
	b.WriteString("a=control:track0\r\n")
	r.SDP = b.String()
}

// String composes the reply's wire representation: status line, headers,
// blank line, and (for DESCRIBE) the SDP body.
func (r Reply) String() string {
	var b strings.Builder

	b.WriteString("RTSP/1.0 " + strconv.Itoa(int(r.Status)) + " " + r.Status.Reason() + "\r\n")
	b.WriteString("CSeq: " + strconv.Itoa(r.CSeq) + "\r\n")
	if r.SessionID != "" {
		b.WriteString("Session: " + r.SessionID + "\r\n")
	}

	if r.Status == StatusOK {
		switch r.Method {
		case MethodOptions:
			b.WriteString("Public: " + r.Options + "\r\n")
		case MethodDescribe:
			b.WriteString("Content-Type: application/sdp\r\n")
			b.WriteString("Content-Length: " + strconv.Itoa(len(r.SDP)) + "\r\n")
			b.WriteString("Content-Base: " + r.ContentBase + "\r\n")
		case MethodSetup:
			b.WriteString("Transport: " + r.TransportReply + "\r\n")
		case MethodPlay:
			if r.Range != "" {
				b.WriteString("Range: " + r.Range + "\r\n")
			}
		}
	}

	b.WriteString("\r\n")

	if r.Method == MethodDescribe && r.SDP != "" {
		b.WriteString(r.SDP)
	}

	return b.String()
}
