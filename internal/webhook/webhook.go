// Package webhook authenticates merge request event deliveries from GitLab
// and GitHub.
package webhook

import (
	"context"
	"io"
	"net/http"
)

// maxBodyBytes caps the size of a delivery body.
const maxBodyBytes = 5 << 20

// Delivery is an authenticated webhook request.
type Delivery struct {
	// Provider is the host that sent the delivery (gitlab, github).
	Provider string

	// EventType is the host's event header, e.g. "Merge Request Hook" or
	// "pull_request".
	EventType string

	// ID is the host's delivery identifier, when it sends one.
	ID string

	Payload []byte
}

// Handler is called with every authenticated delivery. A returned error is
// reported to the host as a server error so it can redeliver.
type Handler func(ctx context.Context, d *Delivery) error

// verifier checks a request's credentials against its body.
type verifier func(r *http.Request, body []byte) (ok bool, reason string)

// endpoint is the shared http.Handler behind both providers.
type endpoint struct {
	provider string
	eventHdr string
	idHdr    string
	verify   verifier
	handler  Handler
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if ok, reason := e.verify(r, body); !ok {
		http.Error(w, reason, http.StatusUnauthorized)
		return
	}

	d := &Delivery{
		Provider:  e.provider,
		EventType: r.Header.Get(e.eventHdr),
		ID:        r.Header.Get(e.idHdr),
		Payload:   body,
	}
	if err := e.handler(r.Context(), d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
