package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Upload.MaxFileSize != 33554432 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 33554432)
	}
	if cfg.Targets.Relational.Driver != "mysql" {
		t.Errorf("Relational.Driver = %q, want %q", cfg.Targets.Relational.Driver, "mysql")
	}
	if cfg.Targets.KeyValue.TableWait != 2*time.Minute {
		t.Errorf("KeyValue.TableWait = %v, want %v", cfg.Targets.KeyValue.TableWait, 2*time.Minute)
	}
	if cfg.Targets.Graph.Port != 8182 || !cfg.Targets.Graph.TLS {
		t.Errorf("Graph = %+v, want port 8182 with TLS", cfg.Targets.Graph)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KEYVALUE_VERIFY_DELAY", "0s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,127.0.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Targets.KeyValue.VerifyDelay != 0 {
		t.Errorf("KeyValue.VerifyDelay = %v, want 0", cfg.Targets.KeyValue.VerifyDelay)
	}
	if len(cfg.Security.TrustedProxies) != 2 {
		t.Errorf("TrustedProxies = %v, want 2 entries", cfg.Security.TrustedProxies)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Targets.Relational.Host != "db.internal" {
		t.Errorf("Relational.Host = %q, want %q", cfg.Targets.Relational.Host, "db.internal")
	}
	if cfg.Targets.Document.URI != "mongodb://localhost:27017" {
		t.Errorf("Document.URI = %q, want %q", cfg.Targets.Document.URI, "mongodb://localhost:27017")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad integer", "SERVER_PORT", "eighty"},
		{"bad duration", "UPLOAD_TIMEOUT", "forever"},
		{"bad bool", "NEPTUNE_TLS", "maybe"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"unknown driver", "RELATIONAL_DRIVER", "oracle"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q expected error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Server.Port = 0
	cfg.Upload.MaxConcurrent = 0

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "UPLOAD_MAX_CONCURRENT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %s", err, want)
		}
	}
}

func TestString_MasksSecrets(t *testing.T) {
	t.Setenv("RELATIONAL_PASSWORD", "hunter2")
	t.Setenv("DOCUMENTDB_URI", "mongodb://root:pw@host:27017")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "root:pw") {
		t.Errorf("String() leaked a secret: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked fields", s)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
	c.Host = ""
	if got := c.Addr(); got != ":8080" {
		t.Errorf("Addr() = %q, want %q", got, ":8080")
	}
}

func TestGraphConfig_URL(t *testing.T) {
	g := GraphConfig{Endpoint: "neptune.local", Port: 8182, TLS: true}
	if got := g.URL(); got != "wss://neptune.local:8182/gremlin" {
		t.Errorf("URL() = %q", got)
	}
	g.TLS = false
	if got := g.URL(); got != "ws://neptune.local:8182/gremlin" {
		t.Errorf("URL() = %q", got)
	}
}
