// mkfixture writes a seeded demo data set: a few weeks of entries for the
// built-in catalog, saved into a LevelDB store, plus a Parquet archive of
// every generated row.
// Usage: go run ./cmd/mkfixture --store testdata/demo.db --archive testdata/demo.parquet --days 10
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/model"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/parquetio"
	"github.com/gyeh/sonobill/internal/session"
	"github.com/gyeh/sonobill/internal/store"
	"github.com/gyeh/sonobill/internal/valuation"
)

var notes = []string{"", "", "", "gemelar", "retorno", "paciente acamada", "revisar laudo"}

func main() {
	storePath := flag.String("store", "testdata/demo.db", "LevelDB store to write")
	archive := flag.String("archive", "", "also write every row to this Parquet file")
	days := flag.Int("days", 10, "number of consecutive days")
	perDay := flag.Int("per-day", 6, "max entries per day")
	start := flag.String("start", "2025-03-03", "first day (YYYY-MM-DD)")
	seed := flag.Int64("seed", 1, "random seed")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	first, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse start: %v\n", err)
		os.Exit(1)
	}

	cat := catalog.Default()
	clinics := session.DefaultClinics()
	entries := generate(cat, clinics[0].ID, first, *days, *perDay, rand.New(rand.NewSource(*seed)))

	engine := valuation.New(cat, language.BrazilianPortuguese)
	prices := cat.DefaultPrices()
	v := engine.Compute(entries, prices)
	if err := v.Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "generated data fails the cross-check: %v\n", err)
		os.Exit(1)
	}

	var eq, direct int
	for _, r := range v.Rows {
		if r.Equivalence {
			eq++
		} else {
			direct++
		}
	}
	fmt.Printf("Generated %d entries (%d equivalence, %d direct), %d exams, %s\n",
		len(entries), eq, direct, v.ExamCount, normalize.BRL(v.GrandTotal))
	if *checkOnly {
		return
	}

	ctx := context.Background()
	kv, err := store.OpenLevelDB(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	docs := store.NewDocuments(kv, zerolog.Nop())
	for _, err := range []error{
		store.Save(ctx, docs, store.KeyEntries, entries),
		store.Save(ctx, docs, store.KeyClinics, clinics),
		store.Save(ctx, docs, store.KeyPrices, prices),
		store.Save(ctx, docs, store.KeyCurrentClinic, clinics[0].ID),
		store.Save(ctx, docs, store.KeyFilterDate, normalize.ISODate(first)),
	} {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Wrote store %s\n", *storePath)

	if *archive == "" {
		return
	}
	rows := make([]model.ExportRow, 0, len(v.Rows))
	for i := range v.Rows {
		rows = append(rows, *normalize.ToExportRow(&v.Rows[i], clinics[0]))
	}
	f, err := os.Create(*archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create archive: %v\n", err)
		os.Exit(1)
	}
	if err := parquetio.Write(f, rows); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "write archive: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close archive: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d rows)\n", *archive, len(rows))
}

// generate picks exams mostly from the equivalence list, with some direct
// exams mixed in, so both summary paths get exercised.
func generate(cat *catalog.Catalog, clinicID string, first time.Time, days, perDay int, rng *rand.Rand) []model.Entry {
	eqs, directs := cat.Equivalences(), cat.Directs()
	var out []model.Entry
	for d := 0; d < days; d++ {
		date := normalize.ISODate(first.AddDate(0, 0, d))
		n := 1 + rng.Intn(perDay)
		for i := 0; i < n; i++ {
			var ref model.ExamRef
			if rng.Intn(3) > 0 || len(directs) == 0 {
				ref = model.EquivalenceRef(eqs[rng.Intn(len(eqs))].ID)
			} else {
				ref = model.DirectRef(directs[rng.Intn(len(directs))].ID)
			}
			out = append(out, model.Entry{
				ID:       uuid.NewString(),
				ClinicID: clinicID,
				Date:     date,
				Exam:     ref,
				Qty:      1 + int64(rng.Intn(3)),
				Note:     notes[rng.Intn(len(notes))],
			})
		}
	}
	return out
}
