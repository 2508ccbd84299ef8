package dispatch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/drewdunne/mrscope/internal/analysis"
	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/toolerr"
)

// ToolRequest is one incoming call: a tool name plus loosely typed parameters,
// as decoded from JSON.
type ToolRequest struct {
	Tool   string         `json:"tool_name"`
	Params map[string]any `json:"params"`
}

// AnalysisReport is the result of analyze_code_changes.
type AnalysisReport struct {
	Summary      provider.MergeRequest      `json:"summary"`
	Statistics   *analysis.ChangeStatistics `json:"statistics"`
	RenderedText string                     `json:"rendered_text"`
}

// Request is a validated tool call. The concrete type tells which tool it is.
type Request interface {
	ToolName() string
}

// FetchMRDetails lists merge requests, or fetches one when MRID is set.
type FetchMRDetails struct {
	ProjectID string
	MRID      *int
	State     string
}

// AnalyzeCodeChanges computes change statistics of one merge request.
type AnalyzeCodeChanges struct {
	ProjectID string
	MRID      int
}

// StoreInConfluence stores an analysis, or a summary of all merge requests when
// neither MRID nor Analysis is set.
type StoreInConfluence struct {
	ProjectID string
	MRID      *int
	Analysis  *AnalysisReport
	Space     string
}

func (FetchMRDetails) ToolName() string     { return ToolFetchMRDetails }
func (AnalyzeCodeChanges) ToolName() string { return ToolAnalyzeCodeChanges }
func (StoreInConfluence) ToolName() string  { return ToolStoreInConfluence }

// Parse validates params against the tool's parameter list and returns the
// typed request. Failures are *toolerr.Error of kind unknown_tool or
// invalid_parameter. Parameters the tool does not declare are ignored.
func Parse(tool string, params map[string]any) (Request, error) {
	spec, ok := lookupTool(tool)
	if !ok {
		return nil, toolerr.UnknownTool(tool)
	}

	for _, p := range spec.Params {
		if p.Required && !present(params, p.Name) {
			return nil, toolerr.InvalidParameter(p.Name, "is required")
		}
	}

	projectID, err := projectParam(params)
	if err != nil {
		return nil, err
	}

	switch tool {
	case ToolFetchMRDetails:
		mrID, err := optionalIntParam(params, "mr_id")
		if err != nil {
			return nil, err
		}
		state, err := optionalStringParam(params, "state")
		if err != nil {
			return nil, err
		}
		if state != "" && !oneOf(state, mrStates) {
			return nil, toolerr.InvalidParameter("state", "must be one of %s, got %q", strings.Join(mrStates, ", "), state)
		}
		return FetchMRDetails{ProjectID: projectID, MRID: mrID, State: state}, nil

	case ToolAnalyzeCodeChanges:
		mrID, err := optionalIntParam(params, "mr_id")
		if err != nil {
			return nil, err
		}
		return AnalyzeCodeChanges{ProjectID: projectID, MRID: *mrID}, nil

	default:
		mrID, err := optionalIntParam(params, "mr_id")
		if err != nil {
			return nil, err
		}
		report, err := analysisParam(params)
		if err != nil {
			return nil, err
		}
		space, err := optionalStringParam(params, "space")
		if err != nil {
			return nil, err
		}
		if report != nil && mrID != nil && report.Summary.ID != 0 && report.Summary.ID != *mrID {
			return nil, toolerr.InvalidParameter("analysis", "belongs to merge request !%d, not !%d", report.Summary.ID, *mrID)
		}
		return StoreInConfluence{ProjectID: projectID, MRID: mrID, Analysis: report, Space: space}, nil
	}
}

func present(params map[string]any, name string) bool {
	v, ok := params[name]
	return ok && v != nil
}

func oneOf(s string, values []string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}

// projectParam accepts a path ("group/project") or a numeric project ID.
func projectParam(params map[string]any) (string, error) {
	switch v := params["project_id"].(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", toolerr.InvalidParameter("project_id", "must not be empty")
		}
		return s, nil
	default:
		n, ok := integer(v)
		if !ok {
			return "", toolerr.InvalidParameter("project_id", "must be a string or an integer, got %s", describe(v))
		}
		if n <= 0 {
			return "", toolerr.InvalidParameter("project_id", "must be positive, got %d", n)
		}
		return strconv.Itoa(n), nil
	}
}

// optionalIntParam returns nil when name is absent. Callers that declared the
// parameter required have already checked presence.
func optionalIntParam(params map[string]any, name string) (*int, error) {
	if !present(params, name) {
		return nil, nil
	}
	v := params[name]
	n, ok := integer(v)
	if !ok {
		return nil, toolerr.InvalidParameter(name, "must be an integer, got %s", describe(v))
	}
	if n <= 0 {
		return nil, toolerr.InvalidParameter(name, "must be positive, got %d", n)
	}
	return &n, nil
}

func optionalStringParam(params map[string]any, name string) (string, error) {
	if !present(params, name) {
		return "", nil
	}
	s, ok := params[name].(string)
	if !ok {
		return "", toolerr.InvalidParameter(name, "must be a string, got %s", describe(params[name]))
	}
	return strings.TrimSpace(s), nil
}

func analysisParam(params map[string]any) (*AnalysisReport, error) {
	if !present(params, "analysis") {
		return nil, nil
	}

	var report AnalysisReport
	switch v := params["analysis"].(type) {
	case AnalysisReport:
		report = v
	case *AnalysisReport:
		report = *v
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, toolerr.InvalidParameter("analysis", "cannot be encoded: %v", err)
		}
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, toolerr.InvalidParameter("analysis", "malformed: %v", err)
		}
	default:
		return nil, toolerr.InvalidParameter("analysis", "must be an object, got %s", describe(v))
	}

	if report.RenderedText == "" && report.Statistics == nil {
		return nil, toolerr.InvalidParameter("analysis", "must contain rendered_text or statistics")
	}
	if report.Statistics != nil {
		if err := report.Statistics.Validate(); err != nil {
			return nil, toolerr.InvalidParameter("analysis", "inconsistent statistics: %v", err)
		}
	}
	return &report, nil
}

// integer accepts the numeric types JSON decoders produce, as long as the
// value is integral and within int32 range.
func integer(v any) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		return integralFloat(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, false
			}
			return integralFloat(f)
		}
		n = i
	default:
		return 0, false
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

func integralFloat(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, float32, int, int32, int64, json.Number:
		return fmt.Sprintf("%v", v)
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	default:
		return "an unsupported value"
	}
}
