package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the report for the active selection",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	return sess.Report(time.Now()).WriteText(os.Stdout)
}
