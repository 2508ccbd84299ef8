package event

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/webhook"
)

type gitHubPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Title string `json:"title"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
}

func normalizeGitHub(d *webhook.Delivery) (*Event, error) {
	if d.EventType != "pull_request" {
		return nil, errors.Wrapf(ErrIgnored, "event type %q", d.EventType)
	}

	var payload gitHubPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "parsing payload")
	}

	e := &Event{
		MRNumber: payload.Number,
		MRTitle:  payload.PullRequest.Title,
		Actor:    payload.Sender.Login,
	}

	switch payload.Action {
	case "opened", "reopened":
		e.Type = TypeMROpened
	case "synchronize":
		e.Type = TypeMRUpdated
	default:
		return nil, errors.Wrapf(ErrIgnored, "pull_request action %q", payload.Action)
	}

	owner, repo, ok := strings.Cut(payload.Repository.FullName, "/")
	if !ok || owner == "" || repo == "" {
		return nil, errors.Errorf("invalid repository full_name %q", payload.Repository.FullName)
	}
	e.ProjectID = payload.Repository.FullName
	if e.MRNumber <= 0 {
		return nil, errors.Errorf("invalid pull request number %d", e.MRNumber)
	}
	return e, nil
}
