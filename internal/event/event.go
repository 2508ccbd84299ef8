// Package event turns webhook deliveries into merge request events and
// stores a fresh analysis page for each one.
package event

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/webhook"
)

// Type represents the type of merge request event.
type Type string

const (
	TypeMROpened  Type = "mr_opened"
	TypeMRUpdated Type = "mr_updated"
)

// ErrIgnored is returned for deliveries that neither open nor push to a merge
// request: comments, label changes, pings and the like.
var ErrIgnored = errors.New("event ignored")

// Event represents a normalized merge request event.
type Event struct {
	Type     Type
	Provider string

	// ProjectID identifies the project the way the tools accept it:
	// group/project on GitLab, owner/repo on GitHub.
	ProjectID string

	MRNumber int
	MRTitle  string

	// Actor who triggered the event.
	Actor string

	DeliveryID string
	Timestamp  time.Time
}

// Key identifies the merge request the event belongs to. Opening and
// updating the same merge request share a key.
func (e *Event) Key() string {
	return e.Provider + ":" + e.ProjectID + "!" + strconv.Itoa(e.MRNumber)
}

// Normalize converts a delivery into an Event.
func Normalize(d *webhook.Delivery) (*Event, error) {
	var (
		e   *Event
		err error
	)
	switch d.Provider {
	case "gitlab":
		e, err = normalizeGitLab(d)
	case "github":
		e, err = normalizeGitHub(d)
	default:
		return nil, errors.Errorf("unknown provider %q", d.Provider)
	}
	if err != nil {
		return nil, err
	}

	e.Provider = d.Provider
	e.DeliveryID = d.ID
	e.Timestamp = time.Now()
	return e, nil
}
