// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (searched from the working directory and
// two levels up), merges an optional config.<APP_ENVIRONMENT>.yaml overlay
// and lets env vars such as DATABASE_POSTGRES_HOST override any key.
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{"./configs", "../../configs", "."} {
		v.AddConfigPath(dir)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return decode(v)
}

// LoadFromFile reads exactly one YAML file; bidctl and tests use it.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	expandPlaceholders(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	fillSecretsFromEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads the first .env found near the working directory or at the module root.
func loadDotEnv() {
	candidates := []string{".env", "../.env", "../../.env", "../../../.env"}
	if root := moduleRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if godotenv.Load(path) == nil {
			return
		}
	}
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandPlaceholders resolves ${VAR} values from the environment. Values that
// expand to nothing keep their placeholder so validate can report them.
func expandPlaceholders(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		raw, ok := v.Get(key).(string)
		if !ok || !strings.Contains(raw, "$") {
			continue
		}
		if expanded := os.ExpandEnv(raw); expanded != raw && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

// fillSecretsFromEnv reads credentials that deployments inject as bare env vars.
func fillSecretsFromEnv(cfg *Config) {
	secrets := []struct {
		target *string
		env    string
	}{
		{&cfg.APIs.GenAI.APIKey, "GENAI_API_KEY"},
		{&cfg.APIs.GenAI.BaseURL, "GENAI_BASE_URL"},
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Storage.MinIO.AccessKeyID, "MINIO_ACCESS_KEY"},
		{&cfg.Storage.MinIO.SecretAccessKey, "MINIO_SECRET_KEY"},
	}
	for _, s := range secrets {
		if *s.target == "" {
			*s.target = os.Getenv(s.env)
		}
	}
}

var defaultWorker = WorkerConfig{
	Enabled:       true,
	MaxJobsActive: 5,
	Timeout:       30000,
	MaxRetries:    3,
}

func applyDefaults(cfg *Config) {
	setInt := func(field *int, def int) {
		if *field == 0 {
			*field = def
		}
	}
	setString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}

	setInt(&cfg.Camunda.MaxJobsActive, 10)
	setInt(&cfg.Camunda.Timeout, 30000)
	setInt(&cfg.Camunda.RequestTimeout, 30000)

	pg := &cfg.Database.Postgres
	setInt(&pg.Port, 5432)
	setInt(&pg.MaxConnections, 25)
	setInt(&pg.MaxIdle, 5)
	setString(&pg.SSLMode, "disable")

	es := &cfg.Database.Elasticsearch
	if es.URL == "" && len(es.Addresses) > 0 {
		es.URL = es.Addresses[0]
	}
	setString(&es.TenderIndex, "tenders")

	setString(&cfg.Storage.MinIO.Bucket, "tenders")

	kafka := &cfg.Messaging.Kafka
	setString(&kafka.Topic, "bidbuddy.events")
	setInt(&kafka.BatchTimeout, 50)
	setInt(&kafka.WriteTimeout, 10000)

	setString(&cfg.Logging.Level, "info")
	setString(&cfg.Logging.Format, "json")
	setString(&cfg.Logging.Output, "stdout")

	setString(&cfg.Tracing.ServiceName, "bidbuddy-workers")
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	for taskType, w := range cfg.Workers {
		setInt(&w.MaxJobsActive, defaultWorker.MaxJobsActive)
		setInt(&w.Timeout, defaultWorker.Timeout)
		setInt(&w.MaxRetries, defaultWorker.MaxRetries)
		cfg.Workers[taskType] = w
	}

	setInt(&cfg.APIs.GenAI.Timeout, 60000)
	setInt(&cfg.APIs.GenAI.MaxRetries, 2)

	setInt(&cfg.Compliance.CompanyCacheTTL, 600)
	setInt(&cfg.Compliance.QuickCheckCacheTTL, 300)
	setInt(&cfg.Compliance.SessionCacheTTL, 3600)

	setString(&cfg.Notifications.TemplateRegistry, "configs/notification-templates.json")
	setString(&cfg.Registry.Path, "configs/worker-registry.json")
	setString(&cfg.Migrations.Path, "migrations")
	setString(&cfg.Server.Address, ":8080")
}

func validate(cfg *Config) error {
	required := []struct {
		key   string
		value string
	}{
		{"camunda.broker_address", cfg.Camunda.BrokerAddress},
		{"database.postgres.host", cfg.Database.Postgres.Host},
		{"database.postgres.database", cfg.Database.Postgres.Database},
		{"database.postgres.user", cfg.Database.Postgres.User},
		{"database.elasticsearch.addresses or url", cfg.Database.Elasticsearch.URL},
		{"database.redis.address", cfg.Database.Redis.Address},
		{"apis.genai.base_url", cfg.APIs.GenAI.BaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	if cfg.Messaging.Kafka.Enabled && len(cfg.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("messaging.kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// Millis converts a millisecond setting to a time.Duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Worker returns the settings for taskType. Task types absent from the
// workers map run enabled with default limits.
func (c *Config) Worker(taskType string) WorkerConfig {
	if w, ok := c.Workers[taskType]; ok {
		return w
	}
	return defaultWorker
}
