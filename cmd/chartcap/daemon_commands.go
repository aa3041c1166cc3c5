package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chartcap/internal/daemonrun"
	"chartcap/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the capture daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg)
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and cycle status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusError
				runningDetail := "stopped"
				if status.Running {
					runningKind = statusOK
					runningDetail = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, runningDetail, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Symbol", statusInfo, status.Symbol, colorize))
				fmt.Fprintln(stdout, renderStatusLine("History DB", statusInfo, status.HistoryDBPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Cycles", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", status.Total), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Completed", statusOK, fmt.Sprintf("%d", status.Completed), colorize))
				failedKind := statusInfo
				if status.Failed > 0 {
					failedKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", status.Failed), colorize))

				if status.LastCycle != nil {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Last Cycle", colorize) {
						fmt.Fprintln(stdout, line)
					}
					last := status.LastCycle
					kind := statusOK
					if last.Status != "completed" {
						kind = statusWarn
					}
					fmt.Fprintln(stdout, renderStatusLine("Outcome", kind, last.Status, colorize))
					fmt.Fprintln(stdout, renderStatusLine("Captured", statusInfo,
						fmt.Sprintf("%d of %d timeframes", last.SuccessCount, last.Attempted), colorize))
					fmt.Fprintln(stdout, renderStatusLine("Finished", statusInfo, last.UpdatedAt, colorize))
					if last.ErrorMessage != "" {
						fmt.Fprintln(stdout, renderStatusLine("Error", statusError, last.ErrorMessage, colorize))
					}
				}
				return nil
			})
		},
	}
}

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Queue a capture cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Capture()
				if err != nil {
					return err
				}
				if !resp.Queued {
					return fmt.Errorf("capture not queued: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the capture daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := ctx.withClient(func(client *ipc.Client) error {
				_, err := client.Stop()
				return err
			})
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}
