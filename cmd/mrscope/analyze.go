package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/drewdunne/mrscope/internal/confluence"
	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/provider"
	"github.com/drewdunne/mrscope/internal/report"
)

var (
	projectFlag string
	mrFlag      int
	stateFlag   string
	storeFlag   bool
	spaceFlag   string
	jsonFlag    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the changes of a merge request",
	Long: `Prints the change report of a merge request. With --store the report is
also stored in Confluence and the page link is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		project, err := projectID(a.cfg.Source.DefaultProject)
		if err != nil {
			return err
		}

		res := a.dispatcher.Dispatch(cmd.Context(), dispatch.ToolRequest{
			Tool:   dispatch.ToolAnalyzeCodeChanges,
			Params: map[string]any{"project_id": project, "mr_id": mrFlag},
		})
		if err := res.Err(); err != nil {
			return err
		}
		analysis := res.Payload.(*dispatch.AnalysisReport)

		if jsonFlag {
			if err := printJSON(cmd, analysis); err != nil {
				return err
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), analysis.RenderedText)
		}

		if !storeFlag {
			return nil
		}
		res = a.dispatcher.Dispatch(cmd.Context(), dispatch.ToolRequest{
			Tool:   dispatch.ToolStoreInConfluence,
			Params: map[string]any{"project_id": project, "mr_id": mrFlag, "analysis": analysis, "space": spaceFlag},
		})
		if err := res.Err(); err != nil {
			return err
		}
		printRef(cmd, res.Payload.(*confluence.DocumentRef))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merge requests of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		project, err := projectID(a.cfg.Source.DefaultProject)
		if err != nil {
			return err
		}

		params := map[string]any{"project_id": project, "state": stateFlag}
		if mrFlag > 0 {
			params["mr_id"] = mrFlag
		}
		res := a.dispatcher.Dispatch(cmd.Context(), dispatch.ToolRequest{Tool: dispatch.ToolFetchMRDetails, Params: params})
		if err := res.Err(); err != nil {
			return err
		}
		mrs := res.Payload.([]provider.MergeRequest)

		if jsonFlag {
			if err := printJSON(cmd, mrs); err != nil {
				return err
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), report.FormatList(project, mrs))
		}

		if !storeFlag {
			return nil
		}
		res = a.dispatcher.Dispatch(cmd.Context(), dispatch.ToolRequest{
			Tool:   dispatch.ToolStoreInConfluence,
			Params: map[string]any{"project_id": project, "space": spaceFlag},
		})
		if err := res.Err(); err != nil {
			return err
		}
		printRef(cmd, res.Payload.(*confluence.DocumentRef))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, listCmd} {
		c.Flags().StringVarP(&projectFlag, "project", "p", "", "Project ID or path (default from config)")
		c.Flags().IntVar(&mrFlag, "mr", 0, "Merge request IID / pull request number")
		c.Flags().BoolVar(&storeFlag, "store", false, "Store the report in Confluence")
		c.Flags().StringVar(&spaceFlag, "space", "", "Confluence space key (default from config)")
		c.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of Markdown")
		rootCmd.AddCommand(c)
	}
	analyzeCmd.MarkFlagRequired("mr")
	listCmd.Flags().StringVar(&stateFlag, "state", "", "State filter: opened, closed, merged or all (default from config)")
}

func projectID(fallback string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("no project: pass --project or set source.default_project")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encoding output")
	}
	return nil
}

func printRef(cmd *cobra.Command, ref *confluence.DocumentRef) {
	action := "Updated"
	if ref.Created {
		action = "Created"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s page %q (version %d) in space %s\n", action, ref.Title, ref.Version, ref.Space)
	if ref.URL != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), ref.URL)
	}
}
