package session

import (
	"crypto/rand"
	"fmt"
)

// newSessionID generates an 8-hex-digit uppercase token, matching the wire
// format the original server used. Collisions are extremely unlikely but not
// impossible; widening this or checking uniqueness across the registry is
// noted as a future improvement, not required by the current deployment
// where at most one session is concurrently active.
func newSessionID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a fixed-but-valid token rather than panic.
		return "00000000"
	}
	return fmt.Sprintf("%02X%02X%02X%02X", b[0], b[1], b[2], b[3])
}
