package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/session"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show or change base-unit prices",
}

var priceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List base units with their current and default prices",
	Args:  cobra.NoArgs,
	RunE:  runPriceList,
}

var priceSetCmd = &cobra.Command{
	Use:   "set <unit> <amount>",
	Short: "Set the price of a base unit, e.g. set abdominal_total 134,38",
	Args:  cobra.ExactArgs(2),
	RunE:  runPriceSet,
}

var priceResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the catalog default prices",
	Args:  cobra.NoArgs,
	RunE:  runPriceReset,
}

func init() {
	priceCmd.AddCommand(priceListCmd, priceSetCmd, priceResetCmd)
	rootCmd.AddCommand(priceCmd)
}

func priceExit(err error) int {
	if errors.Is(err, session.ErrPricesLocked) {
		return exitcode.UsageError
	}
	return exitcode.ValidationError
}

func runPriceList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	cat := sess.Catalog()
	prices := sess.Prices()
	defaults := cat.DefaultPrices()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tNAME\tPRICE\tDEFAULT")
	for _, u := range cat.BaseUnits() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Key, u.Name, normalize.BRL(prices.Price(u.Key)), normalize.BRL(defaults.Price(u.Key)))
	}
	if !sess.PricesEditable() {
		fmt.Fprintln(tw, "\t(prices are locked)\t\t")
	}
	return tw.Flush()
}

func runPriceSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	cents, err := normalize.CentsFromMajor(args[1])
	if err != nil {
		fail(exitcode.UsageError, err, "invalid amount")
	}
	if err := sess.SetPrice(ctx, args[0], cents); err != nil {
		fail(priceExit(err), err, "set price failed")
	}
	fmt.Printf("%s = %s\n", args[0], normalize.BRL(cents))
	return nil
}

func runPriceReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	if err := sess.ResetPrices(ctx); err != nil {
		fail(priceExit(err), err, "reset prices failed")
	}
	fmt.Println("Prices reset to catalog defaults")
	return nil
}
