package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OUTREACH_CONFIG",
		"OUTREACH_VERBOSITY",
		"OUTREACH_DIFY_BASE_URL",
		"DIFY_BASE_URL",
		"OUTREACH_DIFY_API_KEY",
		"DIFY_API_KEY",
		"OUTREACH_USER",
		"OUTREACH_CHAT_URL",
		"OUTREACH_CHAT_API_KEY",
		"OUTREACH_TIMEOUT",
		"OUTREACH_HTTP_PORT",
		"OUTREACH_ALLOW_ORIGIN",
		"OUTREACH_FANOUT_LIMIT",
		"OUTREACH_HISTORY_TTL",
	} {
		t.Setenv(key, "")
	}
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, workflowEnvPrefix) {
			t.Setenv(key, "")
		}
	}
	t.Setenv("OUTREACH_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, VerbosityNormal, cfg.Verbosity)
	assert.Equal(t, DefaultBaseURL, cfg.Dify.BaseURL)
	assert.Equal(t, DefaultUser, cfg.Dify.User)
	assert.Zero(t, cfg.Dify.Timeout)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.AllowOrigin)
	assert.Equal(t, 30*time.Second, cfg.Server.KeepAlive)
	assert.Equal(t, 0, cfg.Generate.FanoutLimit)
	assert.Equal(t, "formal", cfg.Generate.DefaultStyle)
	assert.Equal(t, DefaultHiddenNodes, cfg.Generate.HiddenNodes)
	assert.Equal(t, 24*time.Hour, cfg.History.TTL)
	assert.Equal(t, 50, cfg.History.MaxEntries)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTREACH_VERBOSITY", "debug")
	t.Setenv("OUTREACH_DIFY_BASE_URL", "https://dify.example.com/v1")
	t.Setenv("OUTREACH_DIFY_API_KEY", "app-default")
	t.Setenv("OUTREACH_USER", "ops")
	t.Setenv("OUTREACH_TIMEOUT", "45s")
	t.Setenv("OUTREACH_HTTP_PORT", "8088")
	t.Setenv("OUTREACH_FANOUT_LIMIT", "2")
	t.Setenv("OUTREACH_HISTORY_TTL", "1h")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsDebug())
	assert.True(t, cfg.IsVerbose())
	assert.Equal(t, "https://dify.example.com/v1", cfg.Dify.BaseURL)
	assert.Equal(t, "app-default", cfg.Dify.APIKey)
	assert.Equal(t, "ops", cfg.Dify.User)
	assert.Equal(t, 45*time.Second, cfg.Dify.Timeout)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Generate.FanoutLimit)
	assert.Equal(t, time.Hour, cfg.History.TTL)
}

func TestLoad_ProxyStyleVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIFY_BASE_URL", "http://dify.internal/")
	t.Setenv("DIFY_API_KEY", "app-proxy")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://dify.internal/v1", cfg.Dify.BaseURL)
	assert.Equal(t, "app-proxy", cfg.Dify.APIKey)
}

func TestLoad_PrefixedVariablesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIFY_BASE_URL", "http://proxy")
	t.Setenv("OUTREACH_DIFY_BASE_URL", "http://direct/v1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://direct/v1", cfg.Dify.BaseURL)
}

func TestLoad_WorkflowOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTREACH_DIFY_API_KEY", "app-default")
	t.Setenv("OUTREACH_WORKFLOW_REVIEW_API_KEY", "app-review")
	t.Setenv("OUTREACH_WORKFLOW_PLAN_URL", "http://plans.example.com/v1/workflows")

	cfg, err := Load("")
	require.NoError(t, err)

	review := cfg.Dify.Endpoint("review")
	assert.Equal(t, "app-review", review.APIKey)
	assert.Equal(t, DefaultBaseURL+"/workflows", review.URL)

	plan := cfg.Dify.Endpoint("plan")
	assert.Equal(t, "app-default", plan.APIKey)
	assert.Equal(t, "http://plans.example.com/v1/workflows", plan.URL)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "outreach.yaml")
	content := `
verbosity: verbose
dify:
  base_url: http://yaml.example.com/v1
  api_key: app-yaml
  timeout: 90s
  workflows:
    copywriting:
      api_key: app-copy
  chat:
    api_key: app-chat
server:
  port: 9000
generate:
  fanout_limit: 3
  hidden_nodes: [开始, 输出]
history:
  max_entries: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("OUTREACH_HTTP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, VerbosityVerbose, cfg.Verbosity)
	assert.Equal(t, 90*time.Second, cfg.Dify.Timeout)
	assert.Equal(t, "app-copy", cfg.Dify.Endpoint("copywriting").APIKey)
	assert.Equal(t, "app-yaml", cfg.Dify.Endpoint("review").APIKey)
	assert.Equal(t, 9100, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, 3, cfg.Generate.FanoutLimit)
	assert.Equal(t, []string{"开始", "输出"}, cfg.Generate.HiddenNodes)
	assert.Equal(t, 10, cfg.History.MaxEntries)
	assert.Equal(t, 24*time.Hour, cfg.History.TTL, "unset keys keep defaults")

	chat := cfg.Dify.ChatEndpoint()
	assert.Equal(t, "http://yaml.example.com/v1", chat.URL)
	assert.Equal(t, "app-chat", chat.APIKey)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "outreach.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dify:\n  user: from-file\n"), 0o600))
	t.Setenv("OUTREACH_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Dify.User)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OUTREACH_DIFY_API_KEY=app-dotenv\n"), 0o600))
	t.Setenv("OUTREACH_ENV_FILE", path)
	// godotenv never overrides a variable that is present, even when empty
	require.NoError(t, os.Unsetenv("OUTREACH_DIFY_API_KEY"))
	t.Cleanup(func() { _ = os.Unsetenv("OUTREACH_DIFY_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "app-dotenv", cfg.Dify.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{"bad verbosity", map[string]string{"OUTREACH_VERBOSITY": "loud"}, "OUTREACH_VERBOSITY must be one of"},
		{"bad port", map[string]string{"OUTREACH_HTTP_PORT": "99999"}, "OUTREACH_HTTP_PORT must be between 1 and 65535"},
		{"bad timeout", map[string]string{"OUTREACH_TIMEOUT": "soon"}, "invalid OUTREACH_TIMEOUT"},
		{"negative fanout", map[string]string{"OUTREACH_FANOUT_LIMIT": "-1"}, "must not be negative"},
		{"bad base url", map[string]string{"OUTREACH_DIFY_BASE_URL": "ftp://host"}, "must use http or https"},
		{"zero ttl", map[string]string{"OUTREACH_HISTORY_TTL": "0s"}, "history.ttl must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr string
	}{
		{name: "valid port", input: "3001", want: 3001},
		{name: "minimum valid port", input: "1", want: 1},
		{name: "maximum valid port", input: "65535", want: 65535},
		{name: "port too low", input: "0", wantErr: "must be between 1 and 65535"},
		{name: "port too high", input: "65536", wantErr: "must be between 1 and 65535"},
		{name: "not a number", input: "abc", wantErr: "invalid port number"},
		{name: "floating point", input: "3001.5", wantErr: "invalid port number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePort(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
