package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/session"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Add, change and list logged procedures",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry for the current clinic and date",
	Args:  cobra.NoArgs,
	RunE:  runEntryAdd,
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the exam, quantity, note or date of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryUpdate,
}

var entryRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryRemove,
}

var entryDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Append a copy of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDuplicate,
}

var entryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry of the current clinic",
	Args:  cobra.NoArgs,
	RunE:  runEntryClear,
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries of the active selection with their values",
	Args:  cobra.NoArgs,
	RunE:  runEntryList,
}

var entryFlags struct {
	exam string
	qty  int64
	note string
	date string
	yes  bool
}

func init() {
	for _, c := range []*cobra.Command{entryAddCmd, entryUpdateCmd} {
		f := c.Flags()
		f.StringVar(&entryFlags.exam, "exam", "", "Exam reference (eq:<id> or direct:<slug>)")
		f.Int64Var(&entryFlags.qty, "qty", 1, "Quantity (at least 1)")
		f.StringVar(&entryFlags.note, "note", "", "Free-text observation")
		f.StringVar(&entryFlags.date, "date", "", "Date (YYYY-MM-DD or DD-MM-YYYY)")
	}
	entryClearCmd.Flags().BoolVar(&entryFlags.yes, "yes", false, "Confirm removal")

	entryCmd.AddCommand(entryAddCmd, entryUpdateCmd, entryRemoveCmd, entryDuplicateCmd, entryClearCmd, entryListCmd)
	rootCmd.AddCommand(entryCmd)
}

// entryPatch builds a patch from the flags the user actually set.
func entryPatch(cmd *cobra.Command) (session.EntryPatch, error) {
	var p session.EntryPatch
	f := cmd.Flags()
	if f.Changed("exam") {
		ref, err := model.ParseExamRef(entryFlags.exam)
		if err != nil {
			return p, err
		}
		p.Exam = &ref
	}
	if f.Changed("qty") {
		p.Qty = &entryFlags.qty
	}
	if f.Changed("note") {
		p.Note = &entryFlags.note
	}
	if f.Changed("date") {
		p.Date = &entryFlags.date
	}
	return p, nil
}

func actionExit(err error) int {
	if errors.Is(err, session.ErrEntryNotFound) {
		return exitcode.UsageError
	}
	return exitcode.ValidationError
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	patch, err := entryPatch(cmd)
	if err != nil {
		fail(exitcode.UsageError, err, "invalid exam reference")
	}

	en, err := sess.AddEntry(ctx)
	if err != nil {
		fail(actionExit(err), err, "add entry failed")
	}
	if patch != (session.EntryPatch{}) {
		updated, err := sess.UpdateEntry(ctx, en.ID, patch)
		if err != nil {
			// Do not leave a default entry behind for a rejected add.
			_ = sess.RemoveEntry(ctx, en.ID)
			fail(actionExit(err), err, "add entry failed")
		}
		en = updated
	}
	printEntry(sess, en)
	return nil
}

func runEntryUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	patch, err := entryPatch(cmd)
	if err != nil {
		fail(exitcode.UsageError, err, "invalid exam reference")
	}
	en, err := sess.UpdateEntry(ctx, args[0], patch)
	if err != nil {
		fail(actionExit(err), err, "update entry failed")
	}
	printEntry(sess, en)
	return nil
}

func runEntryRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	if err := sess.RemoveEntry(ctx, args[0]); err != nil {
		fail(actionExit(err), err, "remove entry failed")
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}

func runEntryDuplicate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	en, err := sess.DuplicateEntry(ctx, args[0])
	if err != nil {
		fail(actionExit(err), err, "duplicate entry failed")
	}
	printEntry(sess, en)
	return nil
}

func runEntryClear(cmd *cobra.Command, args []string) error {
	if !entryFlags.yes {
		fail(exitcode.UsageError, errors.New("--yes is required"), "refusing to clear entries")
	}
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	clinic, _ := sess.CurrentClinic()
	n := sess.ClearClinic(ctx)
	fmt.Printf("Removed %d entries of %s\n", n, clinic.Name)
	return nil
}

func runEntryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	v := sess.Valuate()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tEXAM\tQTY\tVALUE\tNOTE")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Entry.ID, r.Entry.Date, r.Label, r.Entry.Qty, normalize.BRL(r.ValueCents), r.Note)
	}
	fmt.Fprintf(tw, "\t\tTotal\t%d\t%s\t\n", v.ExamCount, normalize.BRL(v.GrandTotal))
	return tw.Flush()
}

func printEntry(sess *session.Session, en model.Entry) {
	row := sess.Engine().Derive(en, sess.Prices())
	fmt.Printf("%s  %s  %s × %d = %s\n", en.ID, en.Date, row.Label, en.Qty, normalize.BRL(row.ValueCents))
}
