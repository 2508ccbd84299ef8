package webhook

import (
	"crypto/subtle"
	"net/http"
)

// NewGitLabHandler returns a handler accepting deliveries whose X-Gitlab-Token
// header equals secret.
func NewGitLabHandler(secret string, handler Handler) http.Handler {
	return &endpoint{
		provider: "gitlab",
		eventHdr: "X-Gitlab-Event",
		idHdr:    "X-Gitlab-Event-UUID",
		verify: func(r *http.Request, _ []byte) (bool, string) {
			token := r.Header.Get("X-Gitlab-Token")
			if token == "" {
				return false, "missing token"
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return false, "invalid token"
			}
			return true, ""
		},
		handler: handler,
	}
}
