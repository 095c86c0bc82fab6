package extender

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

type Config struct {
	// Basic settings
	ListenPort int    `yaml:"listenPort"`
	Kubeconfig string `yaml:"kubeconfig"`
	Master     string `yaml:"master"`

	// Collaborators
	InferenceURL  string `yaml:"inferenceURL"`
	PrometheusURL string `yaml:"prometheusURL"`

	// Timeouts
	InferenceTimeout  time.Duration `yaml:"inferenceTimeout"`
	PrometheusTimeout time.Duration `yaml:"prometheusTimeout"`
	SnapshotTimeout   time.Duration `yaml:"snapshotTimeout"`

	// Scoring options
	PriorityWeight float64 `yaml:"priorityWeight"`

	// Debugging options
	VerboseLogging bool `yaml:"verboseLogging"`
}

func NewDefaultConfig() *Config {
	return &Config{
		ListenPort:        8080,
		InferenceURL:      "http://scheduler-inference.monitoring.svc.cluster.local:8080",
		PrometheusURL:     "http://prometheus.monitoring.svc.cluster.local:9090",
		InferenceTimeout:  DefaultInferenceTimeout,
		PrometheusTimeout: DefaultPrometheusTimeout,
		SnapshotTimeout:   DefaultSnapshotTimeout,
		PriorityWeight:    DefaultPriorityWeight,
		VerboseLogging:    false,
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	klog.Infof("Loaded configuration from file: %s", filepath)
	return nil
}

// LoadFromEnv overrides configuration with environment variables
func (c *Config) LoadFromEnv() {
	if v, ok := os.LookupEnv("EXTENDER_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.ListenPort = port
		}
	}
	if v, ok := os.LookupEnv("INFERENCE_SERVER_URL"); ok {
		c.InferenceURL = v
	}
	if v, ok := os.LookupEnv("PROMETHEUS_URL"); ok {
		c.PrometheusURL = v
	}
	if v, ok := os.LookupEnv("INFERENCE_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.InferenceTimeout = d
		}
	}
	if v, ok := os.LookupEnv("PRIORITY_WEIGHT"); ok {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			c.PriorityWeight = w
		}
	}
	klog.V(4).Info("Configuration updated from environment variables")
}

func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1 and 65535")
	}
	if c.InferenceURL == "" {
		return fmt.Errorf("inference URL cannot be empty")
	}
	if c.InferenceTimeout <= 0 {
		return fmt.Errorf("inference timeout must be positive")
	}
	if c.PrometheusTimeout <= 0 {
		return fmt.Errorf("prometheus timeout must be positive")
	}
	if c.SnapshotTimeout <= 0 {
		return fmt.Errorf("snapshot timeout must be positive")
	}
	if c.PriorityWeight <= 0 {
		return fmt.Errorf("priority weight must be positive")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Listen Port: %d
  Inference URL: %s
  Prometheus URL: %s
  Inference Timeout: %v
  Prometheus Timeout: %v
  Snapshot Timeout: %v
  Priority Weight: %.2f
  Verbose Logging: %v
`,
		c.ListenPort,
		c.InferenceURL,
		c.PrometheusURL,
		c.InferenceTimeout,
		c.PrometheusTimeout,
		c.SnapshotTimeout,
		c.PriorityWeight,
		c.VerboseLogging)
}
