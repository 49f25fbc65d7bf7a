package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{Database: DatabaseConfig{Addrs: []string{"localhost:6379"}}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 5000 {
		t.Errorf("http.port = %d, want 5000", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverValkey {
		t.Errorf("database.driver = %q, want %q", cfg.Database.Driver, DriverValkey)
	}
	if cfg.Dedup.Threshold != 0.95 || cfg.Dedup.TopK != 5 {
		t.Errorf("dedup = %+v, want threshold 0.95 top_k 5", cfg.Dedup)
	}
	if cfg.Embedding.Model != "mistral-embed" || cfg.Embedding.Dimensions != 1024 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Index.DefaultPageSize != 20 || cfg.Index.MaxPageSize != 100 {
		t.Errorf("index pagination = %d/%d, want 20/100", cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	}
	if cfg.Embedding.EmbeddingTimeout() != 30*time.Second {
		t.Errorf("embedding timeout = %v", cfg.Embedding.EmbeddingTimeout())
	}
	if cfg.Index.QueryTimeout() != 5*time.Second {
		t.Errorf("query timeout = %v", cfg.Index.QueryTimeout())
	}
	if cfg.Ingest.FingerprintTTL() != 5*time.Minute {
		t.Errorf("fingerprint ttl = %v", cfg.Ingest.FingerprintTTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"valkey without addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"threshold above one", func(c *Config) { c.Dedup.Threshold = 1.5 }, "dedup.threshold"},
		{"threshold of one", func(c *Config) { c.Dedup.Threshold = 1 }, "dedup.threshold"},
		{"negative threshold", func(c *Config) { c.Dedup.Threshold = -0.1 }, "dedup.threshold"},
		{"negative top_k", func(c *Config) { c.Dedup.TopK = -1 }, "dedup.top_k"},
		{"negative rps", func(c *Config) { c.Embedding.RequestsPerSecond = -1 }, "requests_per_second"},
		{"page sizes inverted", func(c *Config) { c.Index.DefaultPageSize = 500 }, "default_page_size"},
		{"negative max pages", func(c *Config) { c.Extract.MaxPages = -1 }, "max_pages"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{Driver: DriverMemory}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("DOCDEDUP_TEST_KEY", "sk-test")
	t.Setenv("DOCDEDUP_TEST_ADDR", "")

	cfg, err := Parse([]byte(`
http:
  port: 8081
database:
  addrs: ["${DOCDEDUP_TEST_ADDR:-valkey:6379}"]
embedding:
  api_key: ${DOCDEDUP_TEST_KEY}
dedup:
  threshold: 0.9
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api_key = %q, want sk-test", cfg.Embedding.APIKey)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "valkey:6379" {
		t.Errorf("addrs = %v, want default valkey:6379", cfg.Database.Addrs)
	}
	if cfg.HTTP.Port != 8081 || cfg.Dedup.Threshold != 0.9 || cfg.Dedup.TopK != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("driver = %q, want memory", cfg.Database.Driver)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
