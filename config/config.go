// Package config loads the front-end configuration from the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentchat/core"
)

// ErrMissingConfig is returned by Validate when required settings are absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Environment variable names.
const (
	EnvProjectEndpoint     = "PROJECT_ENDPOINT"
	EnvModelDeploymentName = "MODEL_DEPLOYMENT_NAME"
	EnvAgentID             = "AGENT_ID"
	EnvAPIKey              = "PROJECT_API_KEY"
	EnvAPIVersion          = "PROJECT_API_VERSION"
	EnvConfigFile          = "AGENTCHAT_CONFIG"
	EnvAddr                = "AGENTCHAT_ADDR"
	EnvLogLevel            = "AGENTCHAT_LOG_LEVEL"
	EnvLogFormat           = "AGENTCHAT_LOG_FORMAT"
	EnvPollInterval        = "AGENTCHAT_POLL_INTERVAL"
	EnvPollMaxInterval     = "AGENTCHAT_POLL_MAX_INTERVAL"
	EnvRunTimeout          = "AGENTCHAT_RUN_TIMEOUT"
	EnvMaxConcurrentTurns  = "AGENTCHAT_MAX_CONCURRENT_TURNS"
	EnvUseMock             = "AGENTCHAT_USE_MOCK"
)

// Config holds everything the front-ends need to talk to the agent service.
type Config struct {
	ProjectEndpoint     string `yaml:"project_endpoint"`
	ModelDeploymentName string `yaml:"model_deployment_name"`
	AgentID             string `yaml:"agent_id"`
	APIKey              string `yaml:"api_key"`
	APIVersion          string `yaml:"api_version"`

	AgentName    string `yaml:"agent_name"`
	Instructions string `yaml:"instructions"`

	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	PollInterval       time.Duration `yaml:"poll_interval"`
	PollMaxInterval    time.Duration `yaml:"poll_max_interval"`
	RunTimeout         time.Duration `yaml:"run_timeout"`
	MaxConcurrentTurns int           `yaml:"max_concurrent_turns"`

	UseMock bool `yaml:"use_mock"`
}

// Default returns a Config with every optional setting populated.
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		LogLevel:           "info",
		LogFormat:          "json",
		PollInterval:       700 * time.Millisecond,
		PollMaxInterval:    5 * time.Second,
		RunTimeout:         5 * time.Minute,
		MaxConcurrentTurns: 16,
	}
}

// Load reads the optional YAML file (path argument, falling back to
// AGENTCHAT_CONFIG) and then applies environment overrides. Load does not
// validate; call Validate before using the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.ProjectEndpoint, EnvProjectEndpoint)
	setString(&c.ModelDeploymentName, EnvModelDeploymentName)
	setString(&c.AgentID, EnvAgentID)
	setString(&c.APIKey, EnvAPIKey)
	setString(&c.APIVersion, EnvAPIVersion)
	setString(&c.Addr, EnvAddr)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.LogFormat, EnvLogFormat)

	if err := setDuration(&c.PollInterval, EnvPollInterval); err != nil {
		return err
	}
	if err := setDuration(&c.PollMaxInterval, EnvPollMaxInterval); err != nil {
		return err
	}
	if err := setDuration(&c.RunTimeout, EnvRunTimeout); err != nil {
		return err
	}

	if v := os.Getenv(EnvMaxConcurrentTurns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxConcurrentTurns, err)
		}
		c.MaxConcurrentTurns = n
	}

	if v := os.Getenv(EnvUseMock); v != "" {
		c.UseMock = getBool(v)
	}

	return nil
}

// Validate checks that the settings required to reach the service are present.
func (c *Config) Validate() error {
	if c.UseMock {
		return nil
	}

	var missing []string
	if c.ProjectEndpoint == "" {
		missing = append(missing, EnvProjectEndpoint)
	}
	if c.ModelDeploymentName == "" {
		missing = append(missing, EnvModelDeploymentName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// AgentSpec returns the specification used when an agent must be created.
func (c *Config) AgentSpec() core.AgentSpec {
	return core.AgentSpec{
		Name:         c.AgentName,
		Model:        c.ModelDeploymentName,
		Instructions: c.Instructions,
	}.WithDefaults()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func getBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
