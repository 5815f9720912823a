package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadFromFile_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("store: sqlite\nstore_path: billing.sqlite\nprices_editable: false\nreport_title: Mutirão\n"), 0644)

	c := Defaults()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Store != "sqlite" || c.StorePath != "billing.sqlite" {
		t.Errorf("store = %q %q", c.Store, c.StorePath)
	}
	if c.PricesEditable {
		t.Error("prices_editable: false was not applied")
	}
	if c.ReportTitle != "Mutirão" {
		t.Errorf("report title = %q", c.ReportTitle)
	}
	if c.Addr != DefaultAddr || c.Locale != DefaultLocale {
		t.Errorf("unset keys changed: addr=%q locale=%q", c.Addr, c.Locale)
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("store: [unclosed\n"), 0644)

	c := Defaults()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	err := c.LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApply_EnvOverrides(t *testing.T) {
	t.Setenv("SONOBILL_STORE", "postgres")
	t.Setenv("SONOBILL_DSN", "postgres://localhost/sonobill")
	t.Setenv("SONOBILL_PRICES_EDITABLE", "false")

	c := Defaults()
	c.Apply(NewViper())

	if c.Store != "postgres" || c.DSN != "postgres://localhost/sonobill" {
		t.Errorf("store = %q dsn = %q", c.Store, c.DSN)
	}
	if c.PricesEditable {
		t.Error("SONOBILL_PRICES_EDITABLE=false was not applied")
	}
	if c.Addr != DefaultAddr {
		t.Errorf("addr = %q", c.Addr)
	}
}

func TestApply_ChangedFlagsOnly(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", DefaultAddr, "")
	fs.String("locale", "en-US", "")
	if err := fs.Parse([]string{"--addr", "127.0.0.1:9999"}); err != nil {
		t.Fatal(err)
	}

	v := NewViper()
	if err := v.BindPFlags(fs); err != nil {
		t.Fatal(err)
	}
	c := Defaults()
	c.Apply(v)

	if c.Addr != "127.0.0.1:9999" {
		t.Errorf("addr = %q", c.Addr)
	}
	if c.Locale != DefaultLocale {
		t.Errorf("unchanged flag default leaked into config: %q", c.Locale)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory", func(c *Config) { c.Store = "memory"; c.StorePath = "" }, false},
		{"unknown store", func(c *Config) { c.Store = "redis" }, true},
		{"postgres without dsn", func(c *Config) { c.Store = "postgres" }, true},
		{"postgres with dsn", func(c *Config) { c.Store = "postgres"; c.DSN = "postgres://x" }, false},
		{"sqlite without path", func(c *Config) { c.Store = "sqlite"; c.StorePath = "" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad locale", func(c *Config) { c.Locale = "not a locale!" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
