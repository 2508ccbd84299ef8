// Package dispatch validates tool calls and routes them to the source host,
// the change aggregator, the report formatter and the documentation host.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drewdunne/mrscope/internal/analysis"
	"github.com/drewdunne/mrscope/internal/confluence"
	"github.com/drewdunne/mrscope/internal/metrics"
	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/report"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

// State is the dispatcher's position in the request lifecycle.
type State int32

const (
	Idle State = iota
	Validating
	Executing
	Rejected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Executing:
		return "executing"
	case Rejected:
		return "rejected"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// DocumentStore persists rendered documents. *confluence.Client implements it.
type DocumentStore interface {
	StoreDocument(ctx context.Context, space, title, body string) (*confluence.DocumentRef, error)
}

// ErrorInfo describes a failed tool call.
type ErrorInfo struct {
	Kind    toolerr.Kind `json:"kind"`
	Message string       `json:"message"`
	Param   string       `json:"param,omitempty"`
}

// ToolResult is the outcome of one tool call. Exactly one of Payload and
// Error is set.
type ToolResult struct {
	OK      bool       `json:"ok"`
	Payload any        `json:"payload,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// Err returns the failure as a *toolerr.Error, or nil for a success.
func (r ToolResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return &toolerr.Error{Kind: r.Error.Kind, Param: r.Error.Param, Message: r.Error.Message}
}

// Dispatcher processes tool calls one at a time.
type Dispatcher struct {
	source provider.Provider
	docs   DocumentStore
	space  string
	logger zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithDocumentStore enables store_in_confluence, storing into space unless a
// call names another one.
func WithDocumentStore(docs DocumentStore, space string) Option {
	return func(d *Dispatcher) {
		d.docs = docs
		d.space = space
	}
}

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a dispatcher reading merge requests from source.
func New(source provider.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source: source,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
}

// Dispatch validates and executes one tool call. Every failure, including a
// panic in a collaborator, comes back as a ToolResult with a typed error.
// Concurrent calls are serialized.
func (d *Dispatcher) Dispatch(ctx context.Context, req ToolRequest) ToolResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.setState(Idle)

	metrics.ToolCallReceived()
	logger := d.logger.With().
		Str("tool", req.Tool).
		Str("request_id", uuid.NewString()).
		Logger()
	start := time.Now()
	logger.Info().Msg("started")

	d.setState(Validating)
	typed, err := Parse(req.Tool, req.Params)
	if err != nil {
		d.setState(Rejected)
		metrics.ToolCallRejected()
		logger.Warn().Err(err).Str("kind", string(toolerr.KindOf(err))).Msg("rejected")
		return failure(err)
	}

	d.setState(Executing)
	payload, err := d.execute(ctx, typed)
	if err != nil {
		metrics.ToolCallFailed()
		logger.Error().
			Err(err).
			Str("kind", string(toolerr.KindOf(err))).
			Dur("elapsed", time.Since(start)).
			Msg("failed")
		return failure(err)
	}

	metrics.ToolCallSucceeded()
	logger.Info().Dur("elapsed", time.Since(start)).Msg("completed")
	return ToolResult{OK: true, Payload: payload}
}

func failure(err error) ToolResult {
	e := toolerr.From(err)
	return ToolResult{Error: &ErrorInfo{Kind: e.Kind, Message: e.Error(), Param: e.Param}}
}

// execute runs the typed request, converting panics into upstream errors.
func (d *Dispatcher) execute(ctx context.Context, req Request) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("stack", string(debug.Stack())).Msgf("panic recovered: %v", r)
			payload = nil
			err = toolerr.Upstream(errors.Errorf("%v", r), "%s panicked", req.ToolName())
		}
	}()

	switch r := req.(type) {
	case FetchMRDetails:
		return d.fetchMRDetails(ctx, r)
	case AnalyzeCodeChanges:
		return d.analyze(ctx, r.ProjectID, r.MRID)
	case StoreInConfluence:
		return d.store(ctx, r)
	default:
		return nil, toolerr.UnknownTool(req.ToolName())
	}
}

func (d *Dispatcher) fetchMRDetails(ctx context.Context, r FetchMRDetails) ([]provider.MergeRequest, error) {
	mrs, err := provider.FetchMergeRequests(ctx, d.source, r.ProjectID, r.MRID, provider.ListOptions{State: r.State})
	if err != nil {
		return nil, err
	}
	if mrs == nil {
		mrs = []provider.MergeRequest{}
	}
	return mrs, nil
}

// analyze fetches a merge request and its changes, aggregates them and renders
// the report.
func (d *Dispatcher) analyze(ctx context.Context, projectID string, mrID int) (*AnalysisReport, error) {
	mr, err := d.source.GetMergeRequest(ctx, projectID, mrID)
	if err != nil {
		return nil, err
	}
	changes, err := d.source.GetFileChanges(ctx, projectID, mrID)
	if err != nil {
		return nil, err
	}

	stats := analysis.Aggregate(changes)
	return &AnalysisReport{
		Summary:      *mr,
		Statistics:   stats,
		RenderedText: report.Format(*mr, stats),
	}, nil
}

func (d *Dispatcher) store(ctx context.Context, r StoreInConfluence) (*confluence.DocumentRef, error) {
	if d.docs == nil {
		return nil, toolerr.Upstream(nil, "documentation host is not configured")
	}
	space := r.Space
	if space == "" {
		space = d.space
	}
	if space == "" {
		return nil, toolerr.InvalidParameter("space", "is required when no default space is configured")
	}

	var title, doc string
	switch {
	case r.Analysis != nil:
		id := r.Analysis.Summary.ID
		if r.MRID != nil {
			id = *r.MRID
		}
		if id == 0 {
			return nil, toolerr.InvalidParameter("mr_id", "is required when the analysis carries no merge request summary")
		}
		title = AnalysisTitle(r.ProjectID, id)
		doc = r.Analysis.RenderedText
		if doc == "" {
			doc = report.Format(r.Analysis.Summary, r.Analysis.Statistics)
		}

	case r.MRID != nil:
		a, err := d.analyze(ctx, r.ProjectID, *r.MRID)
		if err != nil {
			return nil, err
		}
		title = AnalysisTitle(r.ProjectID, *r.MRID)
		doc = a.RenderedText

	default:
		mrs, err := d.source.ListMergeRequests(ctx, r.ProjectID, provider.ListOptions{})
		if err != nil {
			return nil, err
		}
		title = SummaryTitle(r.ProjectID)
		doc = report.FormatList(r.ProjectID, mrs)
	}

	body, err := report.StorageBody(doc)
	if err != nil {
		return nil, toolerr.Upstream(err, "rendering document %q", title)
	}
	ref, err := d.docs.StoreDocument(ctx, space, title, body)
	if err != nil {
		return nil, err
	}
	metrics.DocumentStored(ref.Created)
	return ref, nil
}

// AnalysisTitle is the page title of a stored merge request analysis.
func AnalysisTitle(projectID string, mrID int) string {
	return fmt.Sprintf("MR Analysis - %s !%d", projectID, mrID)
}

// SummaryTitle is the page title of a stored project summary.
func SummaryTitle(projectID string) string {
	return "MR Summary - " + projectID
}
