package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: bidbuddy
    user: ${TEST_PG_USER}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
apis:
  genai:
    base_url: http://genai:8000
workers:
  score-compliance:
    enabled: true
    timeout: 120000
  send-notification:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_ExpandsAndDefaults(t *testing.T) {
	t.Setenv("TEST_PG_USER", "bidbuddy_app")
	t.Setenv("GENAI_API_KEY", "secret-key")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "bidbuddy_app", cfg.Database.Postgres.User)
	assert.Equal(t, "secret-key", cfg.APIs.GenAI.APIKey)

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, "tenders", cfg.Database.Elasticsearch.TenderIndex)
	assert.Equal(t, "tenders", cfg.Storage.MinIO.Bucket)
	assert.Equal(t, "bidbuddy.events", cfg.Messaging.Kafka.Topic)
	assert.Equal(t, "bidbuddy-workers", cfg.Tracing.ServiceName)
	assert.Equal(t, 600, cfg.Compliance.CompanyCacheTTL)
	assert.Equal(t, "configs/worker-registry.json", cfg.Registry.Path)
	assert.Equal(t, ":8080", cfg.Server.Address)

	sc := cfg.Workers["score-compliance"]
	assert.Equal(t, 120000, sc.Timeout)
	assert.Equal(t, 5, sc.MaxJobsActive)
	assert.Equal(t, 3, sc.MaxRetries)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing broker",
			yaml:    "database:\n  postgres:\n    host: h\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "missing postgres user",
			yaml: `
camunda: {broker_address: b}
database:
  postgres: {host: h, database: d}
  elasticsearch: {url: "http://es"}
  redis: {address: r}
apis: {genai: {base_url: "http://g"}}
`,
			wantErr: "database.postgres.user is required",
		},
		{
			name: "kafka enabled without brokers",
			yaml: `
camunda: {broker_address: b}
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: "http://es"}
  redis: {address: r}
apis: {genai: {base_url: "http://g"}}
messaging: {kafka: {enabled: true}}
`,
			wantErr: "messaging.kafka.brokers is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_USER", "")
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// ==========================
// Accessors
// ==========================

func TestConfig_Worker(t *testing.T) {
	t.Setenv("TEST_PG_USER", "u")
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.False(t, cfg.Worker("send-notification").Enabled)
	assert.Equal(t, 120000, cfg.Worker("score-compliance").Timeout)

	fallback := cfg.Worker("answer-copilot-question")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 30000, fallback.Timeout)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Millis(1500))
}
