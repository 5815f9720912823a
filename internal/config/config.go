package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/sonobill/internal/store"
)

const (
	DefaultAddr   = "127.0.0.1:8787"
	DefaultLocale = "pt-BR"
	EnvPrefix     = "SONOBILL"
)

// Config holds all runtime configuration for a sonobill run.
type Config struct {
	ConfigFile     string `yaml:"-"`
	Store          string `yaml:"store"`      // memory, leveldb, sqlite or postgres
	StorePath      string `yaml:"store_path"` // LevelDB directory or SQLite file
	DSN            string `yaml:"dsn"`
	LogFormat      string `yaml:"log_format"` // "text" or "json"
	Addr           string `yaml:"addr"`
	Catalog        string `yaml:"catalog"` // catalog YAML; empty uses the built-in one
	PricesEditable bool   `yaml:"prices_editable"`
	ReportTitle    string `yaml:"report_title"`
	Locale         string `yaml:"locale"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Store:          store.KindLevelDB,
		StorePath:      "sonobill.db",
		LogFormat:      "text",
		Addr:           DefaultAddr,
		PricesEditable: true,
		Locale:         DefaultLocale,
	}
}

// yamlConfig is the on-disk YAML structure. Pointer fields tell an absent
// key from a zero value.
type yamlConfig struct {
	Store          *string `yaml:"store"`
	StorePath      *string `yaml:"store_path"`
	DSN            *string `yaml:"dsn"`
	LogFormat      *string `yaml:"log_format"`
	Addr           *string `yaml:"addr"`
	Catalog        *string `yaml:"catalog"`
	PricesEditable *bool   `yaml:"prices_editable"`
	ReportTitle    *string `yaml:"report_title"`
	Locale         *string `yaml:"locale"`
}

// LoadFromFile reads a YAML config file and merges the keys it sets into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setString(&c.Store, yc.Store)
	setString(&c.StorePath, yc.StorePath)
	setString(&c.DSN, yc.DSN)
	setString(&c.LogFormat, yc.LogFormat)
	setString(&c.Addr, yc.Addr)
	setString(&c.Catalog, yc.Catalog)
	setString(&c.ReportTitle, yc.ReportTitle)
	setString(&c.Locale, yc.Locale)
	if yc.PricesEditable != nil {
		c.PricesEditable = *yc.PricesEditable
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Keys lists the settings that can be overridden from the environment,
// as SONOBILL_<KEY> with dashes turned into underscores.
func Keys() []string {
	return []string{"store", "store-path", "dsn", "log-format", "addr", "catalog", "prices-editable", "report-title", "locale"}
}

// NewViper returns a viper instance reading SONOBILL_* env vars.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, k := range Keys() {
		_ = v.BindEnv(k)
	}
	return v
}

// Apply overrides Config with every key v has a value for. Bound flags that
// the user changed count as set; so do env vars.
func (c *Config) Apply(v *viper.Viper) {
	if v.IsSet("store") {
		c.Store = v.GetString("store")
	}
	if v.IsSet("store-path") {
		c.StorePath = v.GetString("store-path")
	}
	if v.IsSet("dsn") {
		c.DSN = v.GetString("dsn")
	}
	if v.IsSet("log-format") {
		c.LogFormat = v.GetString("log-format")
	}
	if v.IsSet("addr") {
		c.Addr = v.GetString("addr")
	}
	if v.IsSet("catalog") {
		c.Catalog = v.GetString("catalog")
	}
	if v.IsSet("prices-editable") {
		c.PricesEditable = v.GetBool("prices-editable")
	}
	if v.IsSet("report-title") {
		c.ReportTitle = v.GetString("report-title")
	}
	if v.IsSet("locale") {
		c.Locale = v.GetString("locale")
	}
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	switch c.Store {
	case store.KindMemory:
	case store.KindLevelDB, store.KindSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("--store-path is required for store %q", c.Store)
		}
	case store.KindPostgres:
		if c.DSN == "" {
			return fmt.Errorf("--dsn or %s_DSN is required for store postgres", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, leveldb, sqlite or postgres)", c.Store)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	return nil
}

// LanguageTag parses Locale.
func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}
