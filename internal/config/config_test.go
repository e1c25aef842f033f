package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("datawhisper-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8000" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Client.APIURL != "http://127.0.0.1:8000" {
		t.Fatalf("Client.APIURL = %q", cfg.Client.APIURL)
	}
	if cfg.Client.APIKey != "" {
		t.Fatalf("Client.APIKey should have no default, got %q", cfg.Client.APIKey)
	}
	if cfg.Client.Timeout != 30*time.Second {
		t.Fatalf("Client.Timeout = %s", cfg.Client.Timeout)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxRows != 1000 {
		t.Fatalf("Database.MaxRows = %d", cfg.Database.MaxRows)
	}
	if cfg.AI.Model != "llama3-8b-8192" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.Snapshot.Enabled {
		t.Fatal("Snapshot.Enabled should default to false")
	}
	if cfg.ObjectStore.Bucket != "datawhisper" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if cfg.AI.BaseURL != "https://api.groq.com/openai" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in dev")
	}
}

func TestLoadTestProfileDefaults(t *testing.T) {
	cfg, err := Load("datawhisper-api", mapLookup(map[string]string{"DATAWHISPER_PROFILE": "test"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in test")
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("datawhisper-api", mapLookup(map[string]string{"DATAWHISPER_PROFILE": "PROD"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL || cfg.ObjectStore.AutoCreateBucket {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"DATAWHISPER_PROFILE":               "test",
		"DATAWHISPER_SERVICE_NAME":          "datawhisper-custom",
		"DATAWHISPER_API_URL":               "https://whisper.example.com/api",
		"DATAWHISPER_API_KEY":               " secret ",
		"DATAWHISPER_CLIENT_TIMEOUT":        "0s",
		"DATAWHISPER_CLIENT_LOG_FILE":       "/tmp/dw.log",
		"DATAWHISPER_HTTP_ADDR":             ":9999",
		"DATAWHISPER_HTTP_READ_TIMEOUT":     "2s",
		"DATAWHISPER_HTTP_WRITE_TIMEOUT":    "3s",
		"DATAWHISPER_DB_DRIVER":             "Postgres",
		"DATAWHISPER_DB_URL":                "postgres://example",
		"DATAWHISPER_DUCKDB_PATH":           "/data/customers.duckdb",
		"DATAWHISPER_DB_MAX_OPEN_CONNS":     "42",
		"DATAWHISPER_DB_MAX_IDLE_CONNS":     "17",
		"DATAWHISPER_DB_CONN_MAX_IDLE_TIME": "1m",
		"DATAWHISPER_DB_QUERY_TIMEOUT":      "4s",
		"DATAWHISPER_DB_MAX_ROWS":           "50",
		"DATAWHISPER_OBJECTSTORE_ENDPOINT":  "https://s3.example.com",
		"DATAWHISPER_OBJECTSTORE_BUCKET":    "whisper-snapshots",
		"DATAWHISPER_OBJECTSTORE_PREFIX":    "prod",
		"DATAWHISPER_OBJECTSTORE_USE_SSL":   "true",
		"DATAWHISPER_SNAPSHOT_ENABLED":      "true",
		"DATAWHISPER_AI_BASE_URL":           "https://api.example.com",
		"DATAWHISPER_AI_API_KEY":            "llm-key",
		"DATAWHISPER_AI_MODEL":              "llama-3.1-8b-instant",
		"DATAWHISPER_AI_TEMPERATURE":        "0.3",
		"DATAWHISPER_AI_TIMEOUT":            "21s",
		"DATAWHISPER_LOG_LEVEL":             "error",
		"DATAWHISPER_LOG_JSON":              "false",
		"DATAWHISPER_AUTH_REQUIRED":         "true",
		"DATAWHISPER_AUTH_STATIC_KEYS":      "k1:frontend",
	})
	cfg, err := Load("datawhisper-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "datawhisper-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Client.APIURL != "https://whisper.example.com/api" {
		t.Fatalf("Client.APIURL = %q", cfg.Client.APIURL)
	}
	if cfg.Client.APIKey != "secret" {
		t.Fatalf("Client.APIKey = %q", cfg.Client.APIKey)
	}
	if cfg.Client.Timeout != 0 {
		t.Fatalf("Client.Timeout = %s", cfg.Client.Timeout)
	}
	if cfg.Client.LogFile != "/tmp/dw.log" {
		t.Fatalf("Client.LogFile = %q", cfg.Client.LogFile)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second || cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP timeouts = %s/%s", cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "postgres://example" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.DuckDBPath != "/data/customers.duckdb" {
		t.Fatalf("Database.DuckDBPath = %q", cfg.Database.DuckDBPath)
	}
	if cfg.Database.MaxOpenConns != 42 || cfg.Database.MaxIdleConns != 17 {
		t.Fatalf("Database pool = %d/%d", cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxIdleTime != time.Minute {
		t.Fatalf("Database.ConnMaxIdleTime = %s", cfg.Database.ConnMaxIdleTime)
	}
	if cfg.Database.QueryTimeout != 4*time.Second {
		t.Fatalf("Database.QueryTimeout = %s", cfg.Database.QueryTimeout)
	}
	if cfg.Database.MaxRows != 50 {
		t.Fatalf("Database.MaxRows = %d", cfg.Database.MaxRows)
	}
	if cfg.ObjectStore.Endpoint != "https://s3.example.com" || cfg.ObjectStore.Bucket != "whisper-snapshots" || cfg.ObjectStore.Prefix != "prod" || !cfg.ObjectStore.UseSSL {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
	if !cfg.Snapshot.Enabled {
		t.Fatal("Snapshot.Enabled = false, want true")
	}
	if cfg.AI.BaseURL != "https://api.example.com" || cfg.AI.APIKey != "llm-key" {
		t.Fatalf("AI = %+v", cfg.AI)
	}
	if cfg.AI.Model != "llama-3.1-8b-instant" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError || cfg.Observability.LogJSON {
		t.Fatalf("Observability = %+v", cfg.Observability)
	}
	if !cfg.Auth.Required || cfg.Auth.StaticKeys != "k1:frontend" {
		t.Fatalf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"DATAWHISPER_PROFILE": "oops"},
		{"DATAWHISPER_HTTP_READ_TIMEOUT": "NaN"},
		{"DATAWHISPER_HTTP_ADDR": " "},
		{"DATAWHISPER_API_URL": ""},
		{"DATAWHISPER_CLIENT_TIMEOUT": "-1s"},
		{"DATAWHISPER_CLIENT_TIMEOUT": "soon"},
		{"DATAWHISPER_DB_DRIVER": "sqlite"},
		{"DATAWHISPER_DB_MAX_OPEN_CONNS": "oops"},
		{"DATAWHISPER_DB_MAX_ROWS": "-5"},
		{"DATAWHISPER_AI_TEMPERATURE": "bad"},
		{"DATAWHISPER_SNAPSHOT_ENABLED": "maybe"},
		{"DATAWHISPER_AUTH_REQUIRED": "not-bool"},
		{"DATAWHISPER_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("datawhisper-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLoadRequiresLookup(t *testing.T) {
	if _, err := Load("datawhisper-api", nil); err == nil {
		t.Fatal("Load() expected error for nil lookup")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
