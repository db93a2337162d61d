package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the incident RCA service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Collector CollectorConfig `yaml:"collector"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AnalysisConfig tunes window detection and ranking.
type AnalysisConfig struct {
	Detector          string        `yaml:"detector"`
	WindowPadding     time.Duration `yaml:"windowPadding"`
	AbnormalThreshold float64       `yaml:"abnormalThreshold"`
	SpikeThreshold    float64       `yaml:"spikeThreshold"`
	TopK              int           `yaml:"topK"`
	WeightsPath       string        `yaml:"weightsPath"`
	WatchWeights      bool          `yaml:"watchWeights"`
}

// ReasoningConfig selects and bounds the reasoning provider.
type ReasoningConfig struct {
	// Mode is the default reasoning mode for requests that do not set one.
	Mode         string        `yaml:"mode"`
	MockMode     string        `yaml:"mockMode"`
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"baseURL"`
	APIKey       string        `yaml:"apiKey"`
	MaxTokens    int           `yaml:"maxTokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	RetryDelay   time.Duration `yaml:"retryDelay"`
	PlaybookPath string        `yaml:"playbookPath"`
	Cache        CacheConfig   `yaml:"cache"`
}

// CacheConfig controls in-process caching of provider answers.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// CollectorConfig groups the signal sources used by Investigate and the collect command.
type CollectorConfig struct {
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// KubernetesConfig configures event and restart collection.
type KubernetesConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Kubeconfig string        `yaml:"kubeconfig"`
	Namespace  string        `yaml:"namespace"`
	Lookback   time.Duration `yaml:"lookback"`
	Reasons    []string      `yaml:"reasons"`
}

// PrometheusConfig configures metric collection. Queries maps a metric name to PromQL.
type PrometheusConfig struct {
	Address string            `yaml:"address"`
	Timeout time.Duration     `yaml:"timeout"`
	Queries map[string]string `yaml:"queries"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("INCIDENT_RCA_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Analysis: AnalysisConfig{
			Detector:          "heuristic",
			WindowPadding:     5 * time.Minute,
			AbnormalThreshold: 0.05,
			SpikeThreshold:    0.1,
			TopK:              5,
		},
		Reasoning: ReasoningConfig{
			Mode:        "mock",
			MockMode:    "good",
			MaxTokens:   1024,
			Temperature: 0.2,
			Timeout:     10 * time.Second,
			MaxAttempts: 2,
			RetryDelay:  500 * time.Millisecond,
			Cache: CacheConfig{
				Enabled: false,
				Size:    256,
				TTL:     10 * time.Minute,
			},
		},
		Collector: CollectorConfig{
			Kubernetes: KubernetesConfig{
				Namespace: "default",
				Lookback:  30 * time.Minute,
				Reasons:   []string{"OOMKilled", "BackOff", "CrashLoopBackOff", "Failed"},
			},
			Prometheus: PrometheusConfig{Timeout: 5 * time.Second},
		},
	}
}

func (c Config) validate() error {
	switch c.Analysis.Detector {
	case "heuristic", "bounds":
	default:
		return fmt.Errorf("analysis.detector must be heuristic or bounds, got %q", c.Analysis.Detector)
	}
	switch c.Reasoning.Mode {
	case "disabled", "mock", "live":
	default:
		return fmt.Errorf("reasoning.mode must be disabled, mock or live, got %q", c.Reasoning.Mode)
	}
	if c.Reasoning.Mode == "live" && c.Reasoning.Provider == "" {
		return errors.New("reasoning.mode live requires reasoning.provider")
	}
	if c.Reasoning.MaxAttempts < 1 {
		return fmt.Errorf("reasoning.maxAttempts must be at least 1, got %d", c.Reasoning.MaxAttempts)
	}
	if c.Analysis.WindowPadding < 0 {
		return errors.New("analysis.windowPadding must not be negative")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INCIDENT_RCA_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("INCIDENT_RCA_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("INCIDENT_RCA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INCIDENT_RCA_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("INCIDENT_RCA_DETECTOR"); v != "" {
		cfg.Analysis.Detector = v
	}
	if v := os.Getenv("INCIDENT_RCA_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.TopK = k
		}
	}
	if v := os.Getenv("INCIDENT_RCA_WEIGHTS_PATH"); v != "" {
		cfg.Analysis.WeightsPath = v
	}
	if v := os.Getenv("INCIDENT_RCA_REASONING_MODE"); v != "" {
		cfg.Reasoning.Mode = v
	}
	if v := os.Getenv("INCIDENT_RCA_MOCK_MODE"); v != "" {
		cfg.Reasoning.MockMode = v
	}
	if v := os.Getenv("INCIDENT_RCA_PROVIDER"); v != "" {
		cfg.Reasoning.Provider = v
	}
	if v := os.Getenv("INCIDENT_RCA_MODEL"); v != "" {
		cfg.Reasoning.Model = v
	}
	if v := os.Getenv("INCIDENT_RCA_PROVIDER_BASE_URL"); v != "" {
		cfg.Reasoning.BaseURL = v
	}
	if v := os.Getenv("INCIDENT_RCA_API_KEY"); v != "" {
		cfg.Reasoning.APIKey = v
	}
	if v := os.Getenv("INCIDENT_RCA_REASONING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoning.Timeout = d
		}
	}
	if v := os.Getenv("INCIDENT_RCA_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reasoning.MaxAttempts = n
		}
	}
	if v := os.Getenv("INCIDENT_RCA_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoning.RetryDelay = d
		}
	}
	if v := os.Getenv("INCIDENT_RCA_PLAYBOOK_PATH"); v != "" {
		cfg.Reasoning.PlaybookPath = v
	}
	if v := os.Getenv("INCIDENT_RCA_CACHE_ENABLED"); v != "" {
		cfg.Reasoning.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("INCIDENT_RCA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoning.Cache.TTL = d
		}
	}
	if v := os.Getenv("INCIDENT_RCA_KUBECONFIG"); v != "" {
		cfg.Collector.Kubernetes.Kubeconfig = v
	}
	if v := os.Getenv("INCIDENT_RCA_K8S_ENABLED"); v != "" {
		cfg.Collector.Kubernetes.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("INCIDENT_RCA_NAMESPACE"); v != "" {
		cfg.Collector.Kubernetes.Namespace = v
	}
	if v := os.Getenv("INCIDENT_RCA_PROMETHEUS_URL"); v != "" {
		cfg.Collector.Prometheus.Address = v
	}
	if v := os.Getenv("INCIDENT_RCA_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("INCIDENT_RCA_TRACING_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
	}
}
