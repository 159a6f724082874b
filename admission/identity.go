package admission

import (
	"net/http"
	"strings"
)

// UnknownIdentity is shared by every client whose proxy headers were stripped.
const UnknownIdentity ClientIdentity = "unknown"

// ClientIdentity is a best-effort per-client key. It is derived from proxy
// headers and is not an authentication credential.
type ClientIdentity string

func (id ClientIdentity) String() string {
	return string(id)
}

// ClientIdentityFromHeaders prefers the first X-Forwarded-For hop, then
// X-Real-IP, then UnknownIdentity. The address format is not validated.
func ClientIdentityFromHeaders(h http.Header) ClientIdentity {
	if forwardedFor := strings.TrimSpace(h.Get("X-Forwarded-For")); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return ClientIdentity(first)
		}
	}

	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return ClientIdentity(realIP)
	}

	return UnknownIdentity
}
