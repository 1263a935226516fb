// Package config provides configuration management for outreach.
// Values come from built-in defaults, an optional YAML file, a .env file and
// finally environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Verbosity represents the output verbosity level
type Verbosity string

const (
	// VerbosityNormal shows only essential output
	VerbosityNormal Verbosity = "normal"
	// VerbosityVerbose includes step descriptions and timing
	VerbosityVerbose Verbosity = "verbose"
	// VerbosityDebug provides full debug logging
	VerbosityDebug Verbosity = "debug"
)

const (
	// DefaultBaseURL is the workflow service API root used when nothing is configured
	DefaultBaseURL = "http://localhost/v1"
	// DefaultUser is the caller identity sent with each request
	DefaultUser = "web-user"

	workflowEnvPrefix = "OUTREACH_WORKFLOW_"
)

// DefaultHiddenNodes are infrastructure nodes that are not shown as progress steps
var DefaultHiddenNodes = []string{"开始", "审核通过判断", "合并结果", "输出"}

// EndpointConfig points at one workflow application
type EndpointConfig struct {
	// URL is the endpoint base; requests go to URL + "/run" (or "/chat-messages")
	URL string `yaml:"url"`

	// APIKey is the application key sent as a bearer token
	APIKey string `yaml:"api_key"`
}

// DifyConfig holds workflow service configuration
type DifyConfig struct {
	// BaseURL is the API root, e.g. http://localhost/v1
	BaseURL string `yaml:"base_url"`

	// APIKey is used by every endpoint that has no key of its own
	APIKey string `yaml:"api_key"`

	// User is the default caller identity
	User string `yaml:"user"`

	// Timeout bounds blocking calls; zero means no timeout
	Timeout time.Duration `yaml:"timeout"`

	// Workflows holds per-kind overrides keyed by workflow kind
	Workflows map[string]EndpointConfig `yaml:"workflows"`

	// Chat is the support-chat application
	Chat EndpointConfig `yaml:"chat"`
}

// ServerConfig holds gateway configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port int `yaml:"port"`

	// AllowOrigin is sent as Access-Control-Allow-Origin
	AllowOrigin string `yaml:"allow_origin"`

	// KeepAlive is the interval between SSE keep-alive comments
	KeepAlive time.Duration `yaml:"keep_alive"`
}

// GenerateConfig holds content generation settings
type GenerateConfig struct {
	// FanoutLimit caps concurrent per-platform calls; zero means unbounded
	FanoutLimit int `yaml:"fanout_limit"`

	// DefaultStyle is used when no style is chosen
	DefaultStyle string `yaml:"default_style"`

	// HiddenNodes lists node titles that are not reported as progress
	HiddenNodes []string `yaml:"hidden_nodes"`
}

// HistoryConfig holds the in-memory history settings
type HistoryConfig struct {
	// TTL is how long an entry is kept
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the number of entries listed
	MaxEntries int `yaml:"max_entries"`
}

// Config holds all configuration for outreach
type Config struct {
	// Verbosity controls output level
	Verbosity Verbosity `yaml:"verbosity"`

	Dify     DifyConfig     `yaml:"dify"`
	Server   ServerConfig   `yaml:"server"`
	Generate GenerateConfig `yaml:"generate"`
	History  HistoryConfig  `yaml:"history"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Verbosity: VerbosityNormal,
		Dify: DifyConfig{
			BaseURL:   DefaultBaseURL,
			User:      DefaultUser,
			Workflows: make(map[string]EndpointConfig),
		},
		Server: ServerConfig{
			Port:        3001,
			AllowOrigin: "*",
			KeepAlive:   30 * time.Second,
		},
		Generate: GenerateConfig{
			DefaultStyle: "formal",
			HiddenNodes:  append([]string(nil), DefaultHiddenNodes...),
		},
		History: HistoryConfig{
			TTL:        24 * time.Hour,
			MaxEntries: 50,
		},
	}
}

// New loads configuration from the .env file and the environment only
func New() (*Config, error) {
	return Load("")
}

// Load builds the configuration. path names a YAML file; when empty,
// OUTREACH_CONFIG is consulted, and no file is read if that is empty too.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("OUTREACH_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads .env (or OUTREACH_ENV_FILE) without overriding variables
// that are already set
func loadDotEnv() error {
	file := os.Getenv("OUTREACH_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Dify.Workflows == nil {
		c.Dify.Workflows = make(map[string]EndpointConfig)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OUTREACH_VERBOSITY"); v != "" {
		c.Verbosity = Verbosity(v)
	}

	// DIFY_BASE_URL is the bare host used by the dashboard proxy, which
	// rewrote /api to /v1
	if v := os.Getenv("OUTREACH_DIFY_BASE_URL"); v != "" {
		c.Dify.BaseURL = v
	} else if v := os.Getenv("DIFY_BASE_URL"); v != "" {
		c.Dify.BaseURL = strings.TrimRight(v, "/") + "/v1"
	}
	if v := os.Getenv("OUTREACH_DIFY_API_KEY"); v != "" {
		c.Dify.APIKey = v
	} else if v := os.Getenv("DIFY_API_KEY"); v != "" {
		c.Dify.APIKey = v
	}
	if v := os.Getenv("OUTREACH_USER"); v != "" {
		c.Dify.User = v
	}
	if v := os.Getenv("OUTREACH_CHAT_URL"); v != "" {
		c.Dify.Chat.URL = v
	}
	if v := os.Getenv("OUTREACH_CHAT_API_KEY"); v != "" {
		c.Dify.Chat.APIKey = v
	}

	timeout, err := parseDurationEnv("OUTREACH_TIMEOUT", c.Dify.Timeout)
	if err != nil {
		return err
	}
	c.Dify.Timeout = timeout

	if v := os.Getenv("OUTREACH_HTTP_PORT"); v != "" {
		port, err := parsePort(v)
		if err != nil {
			return fmt.Errorf("OUTREACH_HTTP_PORT %s", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("OUTREACH_ALLOW_ORIGIN"); v != "" {
		c.Server.AllowOrigin = v
	}

	if v := os.Getenv("OUTREACH_FANOUT_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OUTREACH_FANOUT_LIMIT: %w", err)
		}
		if limit < 0 {
			return fmt.Errorf("OUTREACH_FANOUT_LIMIT must not be negative, got: %d", limit)
		}
		c.Generate.FanoutLimit = limit
	}

	ttl, err := parseDurationEnv("OUTREACH_HISTORY_TTL", c.History.TTL)
	if err != nil {
		return err
	}
	c.History.TTL = ttl

	c.applyWorkflowEnv(os.Environ())
	return nil
}

// applyWorkflowEnv reads OUTREACH_WORKFLOW_<KIND>_URL and
// OUTREACH_WORKFLOW_<KIND>_API_KEY pairs
func (c *Config) applyWorkflowEnv(environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, workflowEnvPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, workflowEnvPrefix)

		var kind string
		var field string
		switch {
		case strings.HasSuffix(rest, "_API_KEY"):
			kind, field = strings.TrimSuffix(rest, "_API_KEY"), "key"
		case strings.HasSuffix(rest, "_URL"):
			kind, field = strings.TrimSuffix(rest, "_URL"), "url"
		default:
			continue
		}
		if kind == "" {
			continue
		}

		kind = strings.ToLower(kind)
		ep := c.Dify.Workflows[kind]
		if field == "key" {
			ep.APIKey = value
		} else {
			ep.URL = value
		}
		c.Dify.Workflows[kind] = ep
	}
}

func (c *Config) validate() error {
	switch c.Verbosity {
	case VerbosityNormal, VerbosityVerbose, VerbosityDebug:
	default:
		return fmt.Errorf("OUTREACH_VERBOSITY must be one of: normal, verbose, debug; got: %s", c.Verbosity)
	}

	if err := validateURL("dify.base_url", c.Dify.BaseURL); err != nil {
		return err
	}
	for kind, ep := range c.Dify.Workflows {
		if ep.URL == "" {
			continue
		}
		if err := validateURL("dify.workflows."+kind+".url", ep.URL); err != nil {
			return err
		}
	}
	if c.Dify.Chat.URL != "" {
		if err := validateURL("dify.chat.url", c.Dify.Chat.URL); err != nil {
			return err
		}
	}

	if c.Dify.Timeout < 0 {
		return fmt.Errorf("dify.timeout must not be negative, got: %s", c.Dify.Timeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.KeepAlive <= 0 {
		return fmt.Errorf("server.keep_alive must be positive, got: %s", c.Server.KeepAlive)
	}
	if c.Generate.FanoutLimit < 0 {
		return fmt.Errorf("generate.fanout_limit must not be negative, got: %d", c.Generate.FanoutLimit)
	}
	if c.History.TTL <= 0 {
		return fmt.Errorf("history.ttl must be positive, got: %s", c.History.TTL)
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive, got: %d", c.History.MaxEntries)
	}
	return nil
}

// Endpoint resolves the URL and API key of one workflow kind
func (d DifyConfig) Endpoint(kind string) EndpointConfig {
	ep := d.Workflows[kind]
	if ep.URL == "" {
		ep.URL = strings.TrimRight(d.BaseURL, "/") + "/workflows"
	}
	if ep.APIKey == "" {
		ep.APIKey = d.APIKey
	}
	return ep
}

// ChatEndpoint resolves the support-chat application
func (d DifyConfig) ChatEndpoint() EndpointConfig {
	ep := d.Chat
	if ep.URL == "" {
		ep.URL = strings.TrimRight(d.BaseURL, "/")
	}
	if ep.APIKey == "" {
		ep.APIKey = d.APIKey
	}
	return ep
}

// IsVerbose returns true if verbosity is verbose or debug
func (c *Config) IsVerbose() bool {
	return c.Verbosity == VerbosityVerbose || c.Verbosity == VerbosityDebug
}

// IsDebug returns true if verbosity is debug
func (c *Config) IsDebug() bool {
	return c.Verbosity == VerbosityDebug
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got: %s", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must have a host, got: %s", field, raw)
	}
	return nil
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parsePort parses and validates a port number string
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("must be between 1 and 65535, got: %d", port)
	}
	return port, nil
}
