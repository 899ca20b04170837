package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound variable; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range bindings {
		t.Setenv(env, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://jira.example.com/")
	t.Setenv("JIRA_TOKEN", "test-token")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, config.Server.Origins)
	assert.Equal(t, "development", config.Server.Env)
	assert.False(t, config.Server.IsProduction())

	assert.Equal(t, "https://jira.example.com", config.Jira.BaseURL)
	assert.Equal(t, "https://jira.example.com/browse", config.Jira.BrowseURL())
	assert.True(t, config.Jira.RejectUnauthorized)
	assert.Equal(t, 10*time.Second, config.Jira.RequestTimeout)
	assert.Equal(t, 10.0, config.Jira.RequestsPerSecond)
	assert.Equal(t, "customfield_12001", config.Jira.ExtraLabelsField)

	assert.Equal(t, "TPO", config.Traversal.GoalProject)
	assert.Equal(t, "Goal", config.Traversal.GoalIssueType)
	assert.Equal(t, 30*time.Second, config.Traversal.Timeout)
	assert.Equal(t, 1500, config.Traversal.MaxNodes)
	assert.Equal(t, 50, config.Traversal.BatchSize)
	assert.Equal(t, 4, config.Traversal.FetchConcurrency)
	assert.Zero(t, config.Traversal.CacheTTL)

	assert.Equal(t, 5*time.Minute, config.Versions.CacheTTL)
	assert.Equal(t, "PI28", config.Versions.MinPI)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://jira.example.com")
	t.Setenv("JIRA_TOKEN", "test-token")
	t.Setenv("JIRA_USERNAME", " someone ")
	t.Setenv("APP_ORIGIN", "https://a.example.com, https://b.example.com,")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JIRA_REJECT_UNAUTHORIZED", "false")
	t.Setenv("JIRA_TRAVERSAL_TIMEOUT_MS", "1500")
	t.Setenv("SUNBURST_MAX_NODES", "20")
	t.Setenv("VERSION_MIN_PI", "pi30")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, config.Server.Origins)
	assert.True(t, config.Server.IsProduction())
	assert.Equal(t, "someone", config.Jira.Username)
	assert.False(t, config.Jira.RejectUnauthorized)
	assert.Equal(t, 1500*time.Millisecond, config.Traversal.Timeout)
	assert.Equal(t, 20, config.Traversal.MaxNodes)
	assert.Equal(t, "PI30", config.Versions.MinPI)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "Missing everything",
			env:     map[string]string{},
			wantErr: "missing required environment variables: [JIRA_BASE_URL JIRA_TOKEN]",
		},
		{
			name:    "Missing token",
			env:     map[string]string{"JIRA_BASE_URL": "https://jira.example.com"},
			wantErr: "missing required environment variables: [JIRA_TOKEN]",
		},
		{
			name: "Batch size above Jira limit",
			env: map[string]string{
				"JIRA_BASE_URL":       "https://jira.example.com",
				"JIRA_TOKEN":          "test-token",
				"SUNBURST_BATCH_SIZE": "51",
			},
			wantErr: "BatchSize",
		},
		{
			name: "Invalid base URL",
			env: map[string]string{
				"JIRA_BASE_URL": "not a url",
				"JIRA_TOKEN":    "test-token",
			},
			wantErr: "BaseURL",
		},
		{
			name: "Minimum PI without prefix",
			env: map[string]string{
				"JIRA_BASE_URL":  "https://jira.example.com",
				"JIRA_TOKEN":     "test-token",
				"VERSION_MIN_PI": "28",
			},
			wantErr: "MinPI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			config, err := LoadConfig("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, config)
		})
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "starburst.env")
	content := "JIRA_BASE_URL=https://file.example.com\nJIRA_TOKEN=file-token\nGOAL_PROJECT=ABC\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("GOAL_PROJECT", "ENV")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", config.Jira.BaseURL)
	assert.Equal(t, "file-token", config.Jira.Token)
	assert.Equal(t, "ENV", config.Traversal.GoalProject)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://jira.example.com")
	t.Setenv("JIRA_TOKEN", "test-token")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestValidateJiraConfig(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		token   string
		wantErr bool
	}{
		{name: "All fields present", baseURL: "https://jira.example.com", token: "test-token"},
		{name: "Missing base URL", token: "test-token", wantErr: true},
		{name: "Missing token", baseURL: "https://jira.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				Jira: JiraConfig{
					BaseURL: tt.baseURL,
					Token:   tt.token,
				},
			}

			err := ValidateJiraConfig(config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
