package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/report"
	"github.com/gyeh/sonobill/internal/selection"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose the clinic and date the report covers",
	Long:  "Without flags, prints the active selection and the dates that have entries for the current clinic.",
	Args:  cobra.NoArgs,
	RunE:  runSelect,
}

var selectFlags struct {
	clinic  string
	date    string
	allDays bool
}

func init() {
	f := selectCmd.Flags()
	f.StringVar(&selectFlags.clinic, "clinic", "", "Clinic id")
	f.StringVar(&selectFlags.date, "date", "", "Date (YYYY-MM-DD or DD-MM-YYYY)")
	f.BoolVar(&selectFlags.allDays, "all-dates", false, "Clear the date: select every date")
	selectCmd.MarkFlagsMutuallyExclusive("date", "all-dates")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	if selectFlags.clinic != "" {
		if err := sess.SelectClinic(ctx, selectFlags.clinic); err != nil {
			fail(exitcode.ValidationError, err, "select clinic failed")
		}
	}
	switch {
	case selectFlags.allDays:
		sess.ClearDate(ctx)
	case selectFlags.date != "":
		if err := sess.SetDate(ctx, selectFlags.date); err != nil {
			fail(exitcode.ValidationError, err, "select date failed")
		}
	}

	sel := sess.Selection()
	clinic, _ := sess.CurrentClinic()
	dateLabel := report.NoDateLabel
	if sel.Date != "" {
		dateLabel = sel.Date
	}
	fmt.Printf("Clinic: %s\n", report.ClinicLine(clinic))
	fmt.Printf("Date:   %s\n", dateLabel)
	fmt.Println("Dates with entries:")
	for _, d := range selection.Dates(sess.Entries(), sel.ClinicID) {
		fmt.Printf("  %s\n", d)
	}
	return nil
}
