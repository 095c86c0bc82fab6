package inference

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

type Config struct {
	ListenPort int    `yaml:"listenPort"`
	ModelPath  string `yaml:"modelPath"`

	PrometheusURL     string        `yaml:"prometheusURL"`
	PrometheusTimeout time.Duration `yaml:"prometheusTimeout"`
}

func NewDefaultConfig() *Config {
	return &Config{
		ListenPort:        8080,
		ModelPath:         "/models/scheduler_model.json",
		PrometheusURL:     "http://prometheus.monitoring.svc.cluster.local:9090",
		PrometheusTimeout: 2 * time.Second,
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
	if v, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.ListenPort = port
		}
	}
	if v, ok := os.LookupEnv("MODEL_PATH"); ok {
		c.ModelPath = v
	}
	if v, ok := os.LookupEnv("PROMETHEUS_URL"); ok {
		c.PrometheusURL = v
	}
	klog.V(4).Info("Configuration updated from environment variables")
}

func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1 and 65535")
	}
	if c.PrometheusTimeout <= 0 {
		return fmt.Errorf("prometheus timeout must be positive")
	}
	return nil
}
