package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/parquetio"
	"github.com/gyeh/sonobill/internal/selection"
	"github.com/gyeh/sonobill/internal/session"
	"github.com/gyeh/sonobill/internal/store"
	"github.com/gyeh/sonobill/internal/valuation"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run consistency check (no writes)",
	Long:  "Validates the catalog, reports persisted entries that cleanup would migrate, fix or drop, and cross-checks the totals of the active selection. Nothing is written back.",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var checkArchive string

func init() {
	checkCmd.Flags().StringVar(&checkArchive, "archive", "", "Also re-read a Parquet export and print its totals")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cat, err := loadCatalog()
	if err != nil {
		fail(exitcode.ValidationError, err, "catalog validation failed")
	}

	kv, err := openStore(ctx)
	if err != nil {
		fail(exitcode.StoreError, err, "store open failed")
	}
	defer kv.Close()
	docs := store.NewDocuments(kv, log)

	raw, found, err := store.Read[[]json.RawMessage](ctx, docs, store.KeyEntries)
	if err != nil {
		fail(exitcode.ValidationError, err, "persisted entries are unreadable")
	}
	entries, bad := session.DecodeEntries(raw)
	clinicID := store.Load(ctx, docs, store.KeyCurrentClinic, "")
	date := store.Load(ctx, docs, store.KeyFilterDate, "")
	prices := store.Load(ctx, docs, store.KeyPrices, cat.DefaultPrices())

	cleaned, res := session.Cleanup(entries, cat, clinicID)

	fmt.Println("=== sonobill check ===")
	fmt.Printf("Store:      %s\n", cfg.Store)
	fmt.Printf("Catalog:    %d base units, %d equivalence exams, %d direct exams\n",
		len(cat.BaseUnits()), len(cat.Equivalences()), len(cat.Directs()))
	if !found {
		fmt.Println("Entries:    none persisted")
	} else {
		fmt.Printf("Entries:    %d persisted\n", len(entries))
	}
	fmt.Printf("Malformed:  %d entries that do not decode\n", len(bad))
	for _, err := range bad {
		fmt.Printf("  %v\n", err)
	}
	fmt.Printf("Migrated:   %d legacy exam references\n", res.Migrated)
	fmt.Printf("Fixed:      %d entries (missing clinic or quantity)\n", res.Fixed)
	fmt.Printf("Dropped:    %d entries with unknown exams\n", len(res.Dropped))
	for _, en := range res.Dropped {
		fmt.Printf("  %s  %s  %s\n", en.ID, en.Date, en.Exam)
	}

	tag, _ := cfg.LanguageTag()
	v := valuation.New(cat, tag).Compute(selection.Filter(cleaned, clinicID, date), prices)
	fmt.Printf("Selection:  clinic=%q date=%q, %d rows, %s\n", clinicID, date, len(v.Rows), normalize.BRL(v.GrandTotal))

	if checkArchive != "" {
		checkParquetArchive(checkArchive)
	}

	if err := v.Verify(); err != nil {
		fmt.Println("Cross-check: FAILED")
		fail(exitcode.Inconsistent, err, "cross-check failed")
	}
	fmt.Println("Cross-check: OK")
	return nil
}

func checkParquetArchive(path string) {
	sha, err := normalize.FileHash(path)
	if err != nil {
		fail(exitcode.ValidationError, err, "failed to hash archive")
	}
	stat, err := os.Stat(path)
	if err != nil {
		fail(exitcode.ValidationError, err, "failed to stat archive")
	}

	r, err := parquetio.Open(path)
	if err != nil {
		fail(exitcode.ValidationError, err, "failed to open archive")
	}
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		fail(exitcode.ValidationError, err, "failed to read archive")
	}
	qty, cents := parquetio.Totals(rows)

	fmt.Println()
	fmt.Printf("Archive:    %s\n", path)
	fmt.Printf("SHA-256:    %s\n", sha)
	fmt.Printf("Size:       %d bytes\n", stat.Size())
	fmt.Printf("Rows:       %d (%d exams)\n", len(rows), qty)
	fmt.Printf("Total:      %s\n", normalize.BRL(cents))
	fmt.Println("Schema validation: OK")
	fmt.Println()
}
