package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/catalog"
	"github.com/gyeh/sonobill/internal/config"
	"github.com/gyeh/sonobill/internal/db"
	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/logging"
	"github.com/gyeh/sonobill/internal/session"
	"github.com/gyeh/sonobill/internal/store"
)

var (
	cfg        = config.Defaults()
	configFile string
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "sonobill",
	Short:             "Ultrasound procedure log and billing report",
	Long:              "Logs ultrasound procedures per clinic and date, values them against the base-unit price table and exports the daily report.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	d := config.Defaults()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.String("store", d.Store, "Document store: memory, leveldb, sqlite or postgres")
	pf.String("store-path", d.StorePath, "LevelDB directory or SQLite file")
	pf.String("dsn", d.DSN, "Postgres connection string (store=postgres)")
	pf.String("log-format", d.LogFormat, "Log format: text or json")
	pf.String("catalog", d.Catalog, "Exam catalog YAML (default: built-in)")
	pf.Bool("prices-editable", d.PricesEditable, "Allow changing base-unit prices")
	pf.String("report-title", d.ReportTitle, "Report title")
	pf.String("locale", d.Locale, "Collation locale for the consolidated summary")
}

// loadConfig layers defaults, the config file, SONOBILL_* env vars and
// flags, in that order of increasing precedence.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Defaults()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
	}
	v := config.NewViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg.Apply(v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log = logging.Setup(cfg.LogFormat)
	return nil
}

func openStore(ctx context.Context) (store.KV, error) {
	switch cfg.Store {
	case store.KindMemory:
		return store.NewMemory(), nil
	case store.KindLevelDB:
		return store.OpenLevelDB(cfg.StorePath)
	case store.KindSQLite:
		return store.OpenSQLite(cfg.StorePath)
	case store.KindPostgres:
		return db.Open(ctx, cfg.DSN, log)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog)
}

func sessionOptions() session.Options {
	tag, _ := cfg.LanguageTag()
	return session.Options{
		PricesEditable: cfg.PricesEditable,
		ReportTitle:    cfg.ReportTitle,
		Locale:         tag,
	}
}

// mustSession opens the configured store and session, exiting on failure.
// The returned func closes the store.
func mustSession(ctx context.Context) (*session.Session, func()) {
	cat, err := loadCatalog()
	if err != nil {
		log.Error().Err(err).Str("catalog", cfg.Catalog).Msg("catalog load failed")
		os.Exit(exitcode.ValidationError)
	}
	kv, err := openStore(ctx)
	if err != nil {
		log.Error().Err(err).Str("store", cfg.Store).Msg("store open failed")
		os.Exit(exitcode.StoreError)
	}
	docs := store.NewDocuments(kv, log)
	sess := session.Open(ctx, docs, cat, log, sessionOptions())
	return sess, func() {
		if err := kv.Close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}
}

// fail logs err and exits with code.
func fail(code int, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(code)
}
