package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/model"
)

var clinicCmd = &cobra.Command{
	Use:   "clinic",
	Short: "Manage the clinics entries are logged for",
}

var clinicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clinics; the current one is marked with *",
	Args:  cobra.NoArgs,
	RunE:  runClinicList,
}

var clinicAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a clinic",
	Args:  cobra.ExactArgs(1),
	RunE:  runClinicAdd,
}

var clinicFlags model.Clinic

func init() {
	f := clinicAddCmd.Flags()
	f.StringVar(&clinicFlags.ID, "id", "", "Clinic id (default: derived from the name)")
	f.StringVar(&clinicFlags.Place, "place", "", "Site or unit")
	f.StringVar(&clinicFlags.City, "city", "", "City")
	f.StringVar(&clinicFlags.Logo, "logo", "", "Logo reference")

	clinicCmd.AddCommand(clinicListCmd, clinicAddCmd)
	rootCmd.AddCommand(clinicCmd)
}

func runClinicList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	current := sess.Selection().ClinicID
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tPLACE\tCITY")
	for _, c := range sess.Clinics() {
		mark := ""
		if c.ID == current {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, c.ID, c.Name, c.Place, c.City)
	}
	return tw.Flush()
}

func runClinicAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	c := clinicFlags
	c.Name = args[0]
	added, err := sess.AddClinic(ctx, c)
	if err != nil {
		fail(exitcode.ValidationError, err, "add clinic failed")
	}
	fmt.Printf("Added clinic %s (%s)\n", added.Name, added.ID)
	return nil
}
