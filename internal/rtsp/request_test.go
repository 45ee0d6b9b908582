package rtsp

import "testing"

func TestParseRequestOptions(t *testing.T) {
	raw := "OPTIONS rtsp://127.0.0.1:8554/live RTSP/1.0\r\nCSeq: 1\r\n\r\n"
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Method != MethodOptions {
		t.Fatalf("method = %v, want OPTIONS", req.Method)
	}
	if req.URL != "rtsp://127.0.0.1:8554/live" {
		t.Fatalf("url = %q", req.URL)
	}
	if req.Version != "RTSP/1.0" {
		t.Fatalf("version = %q", req.Version)
	}
	if req.CSeq != 1 {
		t.Fatalf("cseq = %d, want 1", req.CSeq)
	}
}

func TestParseRequestSetupTransport(t *testing.T) {
	raw := "SETUP rtsp://127.0.0.1:8554/live/track0 RTSP/1.0\r\n" +
		"CSeq: 3\r\n" +
		"Transport: RTP/AVP;unicast;client_port=4000-4001\r\n" +
		"\r\n"
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Method != MethodSetup {
		t.Fatalf("method = %v, want SETUP", req.Method)
	}
	if req.ClientPort != [2]uint16{4000, 4001} {
		t.Fatalf("client ports = %v, want [4000 4001]", req.ClientPort)
	}
}

func TestParseRequestSessionHeader(t *testing.T) {
	raw := "PLAY rtsp://127.0.0.1:8554/live RTSP/1.0\r\nCSeq: 4\r\nSession: ABCD1234\r\n\r\n"
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.SessionID != "ABCD1234" {
		t.Fatalf("session = %q, want ABCD1234", req.SessionID)
	}
}

func TestParseRequestUnknownMethod(t *testing.T) {
	raw := "FROB rtsp://127.0.0.1:8554/live RTSP/1.0\r\nCSeq: 1\r\n\r\n"
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Method != MethodUnknown {
		t.Fatalf("method = %v, want UNKNOWN", req.Method)
	}
}

func TestParseRequestMalformedRequestLine(t *testing.T) {
	if _, err := ParseRequest("NOT A VALID REQUEST LINE TOO MANY FIELDS\r\n\r\n"); err == nil {
		t.Fatal("expected error for malformed request line")
	}
}

func TestParseRequestMalformedHeaderLine(t *testing.T) {
	raw := "OPTIONS rtsp://127.0.0.1:8554/live RTSP/1.0\r\nNotAHeaderLine\r\n\r\n"
	if _, err := ParseRequest(raw); err == nil {
		t.Fatal("expected error for malformed header line")
	}
}

func TestParseRequestTransportMissingClientPort(t *testing.T) {
	raw := "SETUP rtsp://127.0.0.1:8554/live RTSP/1.0\r\nCSeq: 3\r\nTransport: RTP/AVP;unicast\r\n\r\n"
	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.ClientPort != [2]uint16{0, 0} {
		t.Fatalf("client ports = %v, want zero", req.ClientPort)
	}
}

func TestParseMethodCaseInsensitive(t *testing.T) {
	if ParseMethod("describe") != MethodDescribe {
		t.Fatal("expected lowercase method to map to DESCRIBE")
	}
}
