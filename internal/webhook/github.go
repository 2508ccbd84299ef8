package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// NewGitHubHandler returns a handler accepting deliveries signed with secret
// in the X-Hub-Signature-256 header.
func NewGitHubHandler(secret string, handler Handler) http.Handler {
	return &endpoint{
		provider: "github",
		eventHdr: "X-GitHub-Event",
		idHdr:    "X-GitHub-Delivery",
		verify: func(r *http.Request, body []byte) (bool, string) {
			signature := r.Header.Get("X-Hub-Signature-256")
			if signature == "" {
				return false, "missing signature"
			}
			if !validSignature(secret, body, signature) {
				return false, "invalid signature"
			}
			return true, ""
		},
		handler: handler,
	}
}

// Sign returns the X-Hub-Signature-256 value of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, payload []byte, signature string) bool {
	hexSig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}
	sig, err := hex.DecodeString(hexSig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(sig, mac.Sum(nil))
}
