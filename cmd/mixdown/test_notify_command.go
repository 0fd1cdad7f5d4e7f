package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Sent    bool   `json:"sent"`
				Message string `json:"message"`
			}
			if err := ctx.doJSON("POST", "/api/test-notify", nil, &result); err != nil {
				return err
			}
			switch {
			case result.Message != "":
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			case result.Sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}
