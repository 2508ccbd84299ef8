package event

import (
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/webhook"
)

type gitLabPayload struct {
	ObjectKind       string `json:"object_kind"`
	ObjectAttributes struct {
		IID    int    `json:"iid"`
		Title  string `json:"title"`
		Action string `json:"action"`
		OldRev string `json:"oldrev"`
	} `json:"object_attributes"`
	Project struct {
		ID                int    `json:"id"`
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

func normalizeGitLab(d *webhook.Delivery) (*Event, error) {
	var payload gitLabPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "parsing payload")
	}
	if payload.ObjectKind != "merge_request" {
		return nil, errors.Wrapf(ErrIgnored, "object_kind %q", payload.ObjectKind)
	}

	attrs := payload.ObjectAttributes
	e := &Event{
		MRNumber: attrs.IID,
		MRTitle:  attrs.Title,
		Actor:    payload.User.Username,
	}

	switch attrs.Action {
	case "open", "reopen":
		e.Type = TypeMROpened
	case "update":
		// Updates without oldrev only touch metadata such as labels.
		if attrs.OldRev == "" {
			return nil, errors.Wrap(ErrIgnored, "merge_request update without new commits")
		}
		e.Type = TypeMRUpdated
	default:
		return nil, errors.Wrapf(ErrIgnored, "merge_request action %q", attrs.Action)
	}

	switch {
	case payload.Project.PathWithNamespace != "":
		e.ProjectID = payload.Project.PathWithNamespace
	case payload.Project.ID > 0:
		e.ProjectID = strconv.Itoa(payload.Project.ID)
	default:
		return nil, errors.New("payload names no project")
	}
	if e.MRNumber <= 0 {
		return nil, errors.Errorf("invalid merge request iid %d", e.MRNumber)
	}
	return e, nil
}
