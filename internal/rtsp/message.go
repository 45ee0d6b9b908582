// Package rtsp decodes control requests and composes control replies for the
// text-based session-description streaming protocol spoken on the control
// connection.
package rtsp

import "strings"

// Method identifies the request-line verb.
type Method int

// Recognized methods. Any token that doesn't match one of these decodes to
// MethodUnknown.
const (
	MethodUnknown Method = iota
	MethodOptions
	MethodDescribe
	MethodSetup
	MethodPlay
	MethodTeardown
	MethodPause
	MethodGetParameter
	MethodSetParameter
)

var methodNames = map[Method]string{
	MethodOptions:       "OPTIONS",
	MethodDescribe:      "DESCRIBE",
	MethodSetup:         "SETUP",
	MethodPlay:          "PLAY",
	MethodTeardown:      "TEARDOWN",
	MethodPause:         "PAUSE",
	MethodGetParameter:  "GET_PARAMETER",
	MethodSetParameter:  "SET_PARAMETER",
	MethodUnknown:       "UNKNOWN",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for method, name := range methodNames {
		if method == MethodUnknown {
			continue
		}
		m[name] = method
	}
	return m
}()

// ParseMethod maps a request-line token to a Method, returning MethodUnknown
// for anything not in the table.
func ParseMethod(token string) Method {
	if m, ok := methodsByName[strings.ToUpper(token)]; ok {
		return m
	}
	return MethodUnknown
}

// String renders the wire form of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// SupportedMethods is the fixed list advertised in an OPTIONS reply's Public
// header, in the order the original server lists them.
const SupportedMethods = "OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN"

// StatusCode is one of the fixed set of integer reply codes this server
// emits.
type StatusCode int

const (
	StatusOK                   StatusCode = 200
	StatusBadRequest           StatusCode = 400
	StatusUnauthorized         StatusCode = 401
	StatusNotFound             StatusCode = 404
	StatusMethodNotAllowed     StatusCode = 405
	StatusSessionNotFound      StatusCode = 454
	StatusUnsupportedTransport StatusCode = 461
	StatusInternalServerError  StatusCode = 500
)

var statusReasons = map[StatusCode]string{
	StatusOK:                   "OK",
	StatusBadRequest:           "Bad Request",
	StatusUnauthorized:         "Unauthorized",
	StatusNotFound:             "Not Found",
	StatusMethodNotAllowed:     "Method Not Allowed",
	StatusSessionNotFound:      "Session Not Found",
	StatusUnsupportedTransport: "Unsupported Transport",
	StatusInternalServerError:  "Internal Server Error",
}

// Reason returns the status line's reason phrase. Codes outside the known
// table render as "Unknown", matching the composer's fallback.
func (s StatusCode) Reason() string {
	if reason, ok := statusReasons[s]; ok {
		return reason
	}
	return "Unknown"
}
