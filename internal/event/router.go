package event

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/confluence"
	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/metrics"
	"github.com/drewdunne/mrscope/internal/webhook"
)

// Dispatcher runs tool calls. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.ToolRequest) dispatch.ToolResult
}

// Router stores an analysis page for every enabled, non-repeated event.
type Router struct {
	cfg        config.WebhookConfig
	dispatcher Dispatcher
	debouncer  *Debouncer
	logger     zerolog.Logger
}

// NewRouter creates a new event router.
func NewRouter(cfg config.WebhookConfig, d Dispatcher, logger zerolog.Logger) *Router {
	return &Router{
		cfg:        cfg,
		dispatcher: d,
		debouncer:  NewDebouncer(cfg.DebounceWindow()),
		logger:     logger.With().Str("component", "webhook").Logger(),
	}
}

// HandleDelivery normalizes and routes an authenticated delivery. It has the
// webhook.Handler signature.
func (r *Router) HandleDelivery(ctx context.Context, d *webhook.Delivery) error {
	metrics.WebhookReceived()
	logger := r.logger.With().
		Str("provider", d.Provider).
		Str("event", d.EventType).
		Str("delivery", d.ID).
		Logger()

	e, err := Normalize(d)
	switch {
	case errors.Is(err, ErrIgnored):
		logger.Debug().Err(err).Msg("delivery ignored")
		return nil
	case err != nil:
		// Redelivering a malformed payload will not help.
		logger.Warn().Err(err).Msg("malformed delivery")
		return nil
	}
	return r.Route(ctx, e)
}

// Route stores the analysis of the event's merge request through
// store_in_confluence.
func (r *Router) Route(ctx context.Context, e *Event) error {
	logger := r.logger.With().Str("mr", e.Key()).Str("type", string(e.Type)).Logger()

	if !r.isEventEnabled(e.Type) {
		logger.Debug().Msg("event type disabled")
		return nil
	}

	r.debouncer.Cleanup()
	if !r.debouncer.ShouldProcess(e) {
		logger.Info().Msg("event debounced")
		return nil
	}

	res := r.dispatcher.Dispatch(ctx, dispatch.ToolRequest{
		Tool: dispatch.ToolStoreInConfluence,
		Params: map[string]any{
			"project_id": e.ProjectID,
			"mr_id":      e.MRNumber,
		},
	})
	if err := res.Err(); err != nil {
		r.debouncer.Forget(e)
		return errors.Wrapf(err, "storing analysis of %s", e.Key())
	}

	metrics.WebhookProcessed()
	ev := logger.Info().Str("actor", e.Actor)
	if ref, ok := res.Payload.(*confluence.DocumentRef); ok {
		ev = ev.Str("page_id", ref.ID).Bool("created", ref.Created)
	}
	ev.Msg("analysis stored")
	return nil
}

func (r *Router) isEventEnabled(t Type) bool {
	switch t {
	case TypeMROpened:
		return r.cfg.MROpened
	case TypeMRUpdated:
		return r.cfg.MRUpdated
	default:
		return false
	}
}
