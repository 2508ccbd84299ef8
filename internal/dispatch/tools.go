package dispatch

// Tool names.
const (
	ToolFetchMRDetails     = "fetch_mr_details"
	ToolAnalyzeCodeChanges = "analyze_code_changes"
	ToolStoreInConfluence  = "store_in_confluence"
)

// Parameter types, named after their JSON Schema counterparts.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeObject  = "object"
)

// Param describes one tool parameter.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Description string
	Enum        []string
}

// ToolSpec describes a tool exposed by the dispatcher.
type ToolSpec struct {
	Name        string
	Title       string
	Description string
	ReadOnly    bool
	Params      []Param
}

var mrStates = []string{"opened", "closed", "merged", "all"}

var toolSpecs = []ToolSpec{
	{
		Name:  ToolFetchMRDetails,
		Title: "Fetch Merge Request Details",
		Description: "Fetch details of one merge request, or of every merge request of a project " +
			"when mr_id is omitted.",
		ReadOnly: true,
		Params: []Param{
			{Name: "project_id", Type: TypeString, Required: true, Description: "Project ID or path (owner/repo on GitHub)"},
			{Name: "mr_id", Type: TypeInteger, Description: "Merge request IID / pull request number"},
			{Name: "state", Type: TypeString, Enum: mrStates, Description: "State filter when listing. Default: server setting (opened)"},
		},
	},
	{
		Name:  ToolAnalyzeCodeChanges,
		Title: "Analyze Code Changes",
		Description: "Compute change statistics of a merge request grouped by file type and render " +
			"them as a Markdown report.",
		ReadOnly: true,
		Params: []Param{
			{Name: "project_id", Type: TypeString, Required: true, Description: "Project ID or path (owner/repo on GitHub)"},
			{Name: "mr_id", Type: TypeInteger, Required: true, Description: "Merge request IID / pull request number"},
		},
	},
	{
		Name:  ToolStoreInConfluence,
		Title: "Store in Confluence",
		Description: "Store a merge request analysis as a Confluence page, creating or updating the page " +
			"with the same title. Without mr_id and analysis a summary of all merge requests is stored.",
		Params: []Param{
			{Name: "project_id", Type: TypeString, Required: true, Description: "Project ID or path (owner/repo on GitHub)"},
			{Name: "mr_id", Type: TypeInteger, Description: "Merge request IID / pull request number"},
			{Name: "analysis", Type: TypeObject, Description: "Result of analyze_code_changes. Computed when omitted"},
			{Name: "space", Type: TypeString, Description: "Confluence space key. Default: server setting"},
		},
	},
}

// Tools returns the specs of every registered tool.
func Tools() []ToolSpec {
	out := make([]ToolSpec, len(toolSpecs))
	copy(out, toolSpecs)
	return out
}

func lookupTool(name string) (ToolSpec, bool) {
	for _, t := range toolSpecs {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSpec{}, false
}
