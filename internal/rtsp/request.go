package rtsp

import (
	"fmt"
	"strconv"
	"strings"
)

// Delimiter terminates a complete request (or reply) message on the wire.
const Delimiter = "\r\n\r\n"

const clientPortKey = "client_port="

// Request is a fully decoded control request. It is immutable once returned
// by ParseRequest.
type Request struct {
	Method     Method
	URL        string
	Version    string
	CSeq       int
	SessionID  string
	ClientPort [2]uint16
}

// ParseRequest decodes one complete request message: a request line followed
// by zero or more header lines, each terminated by CRLF, up to (but not
// including) the blank-line terminator. raw may or may not include the
// trailing blank line; only lines before it are consulted.
func ParseRequest(raw string) (Request, error) {
	var req Request

	lines := strings.Split(raw, "\r\n")
	sawRequestLine := false

	for _, line := range lines {
		if line == "" {
			if !sawRequestLine {
				continue // skip empty lines before the request line
			}
			break
		}
		if !sawRequestLine {
			if err := parseRequestLine(line, &req); err != nil {
				return Request{}, err
			}
			sawRequestLine = true
			continue
		}
		if err := parseHeaderLine(line, &req); err != nil {
			return Request{}, err
		}
	}

	if !sawRequestLine {
		return Request{}, fmt.Errorf("rtsp: empty request")
	}

	return req, nil
}

func parseRequestLine(line string, req *Request) error {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return fmt.Errorf("rtsp: malformed request line %q", line)
	}
	req.Method = ParseMethod(fields[0])
	req.URL = fields[1]
	req.Version = fields[2]
	return nil
}

func parseHeaderLine(line string, req *Request) error {
	pos := strings.Index(line, ":")
	if pos < 0 {
		return fmt.Errorf("rtsp: malformed header line %q", line)
	}
	key := strings.TrimSpace(line[:pos])
	value := strings.TrimSpace(line[pos+1:])

	switch key {
	case "CSeq":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("rtsp: invalid CSeq %q: %w", value, err)
		}
		req.CSeq = n
	case "Session":
		req.SessionID = value
	case "Transport":
		parseTransport(value, req)
	}
	return nil
}

// parseTransport extracts the two client datagram ports from a Transport
// header value. Absence or malformed values leave the ports at zero, matching
// the tolerant behavior of the original scanner.
func parseTransport(value string, req *Request) {
	pos := strings.Index(value, clientPortKey)
	if pos < 0 {
		return
	}
	rest := value[pos+len(clientPortKey):]

	end := strings.IndexAny(rest, "; \t")
	if end >= 0 {
		rest = rest[:end]
	}

	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 {
		return
	}
	rtp, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return
	}
	rtcp, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return
	}
	req.ClientPort[0] = uint16(rtp)
	req.ClientPort[1] = uint16(rtcp)
}
