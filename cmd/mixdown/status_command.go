package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type statusPayload struct {
	Jobs struct {
		Total      int `json:"total"`
		Pending    int `json:"pending"`
		Processing int `json:"processing"`
		Completed  int `json:"completed"`
		Failed     int `json:"failed"`
	} `json:"jobs"`
	Tools []struct {
		Name      string `json:"name"`
		Available bool   `json:"available"`
		Path      string `json:"path"`
		Required  bool   `json:"required"`
	} `json:"tools"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload statusPayload
			if err := ctx.getJSON("/api/status", &payload); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"TOTAL", "PENDING", "PROCESSING", "COMPLETED", "FAILED"},
				[][]string{{
					strconv.Itoa(payload.Jobs.Total),
					strconv.Itoa(payload.Jobs.Pending),
					strconv.Itoa(payload.Jobs.Processing),
					strconv.Itoa(payload.Jobs.Completed),
					strconv.Itoa(payload.Jobs.Failed),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))

			toolRows := make([][]string, 0, len(payload.Tools))
			for _, tool := range payload.Tools {
				toolRows = append(toolRows, []string{
					tool.Name,
					tool.Path,
					yesNo(tool.Available),
					yesNo(tool.Required),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"TOOL", "COMMAND", "AVAILABLE", "REQUIRED"},
				toolRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")
	return cmd
}
