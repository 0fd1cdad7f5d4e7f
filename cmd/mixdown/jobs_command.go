package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type jobRow struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"requestId"`
	Title        string    `json:"title"`
	InputCount   int       `json:"inputCount"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage"`
	ArtifactURL  string    `json:"artifactUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List merge jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/jobs"
			if statusFilter != "" {
				path += "?status=" + statusFilter
			}
			var rows []jobRow
			if err := ctx.getJSON(path, &rows); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				detail := row.ArtifactURL
				if row.Status == "failed" {
					detail = row.ErrorMessage
				}
				tableRows = append(tableRows, []string{
					strconv.FormatInt(row.ID, 10),
					row.Title,
					strconv.Itoa(row.InputCount),
					row.Status,
					row.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "TITLE", "INPUTS", "STATUS", "UPDATED", "DETAIL"},
				tableRows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit jobs as JSON")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by job status")
	return cmd
}
