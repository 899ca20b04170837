// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when no env file is given and it exists.
const DefaultEnvFile = ".env"

// Config holds all configuration parameters for the application.
type Config struct {
	Server    ServerConfig
	Jira      JiraConfig
	Traversal TraversalConfig
	Versions  VersionsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      int      `validate:"min=1,max=65535"`
	Origins   []string `validate:"dive,required"`
	Env       string   `validate:"required"`
	StaticDir string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	BaseURL            string `validate:"required,url"`
	Token              string `validate:"required"`
	Username           string
	RejectUnauthorized bool
	RequestTimeout     time.Duration `validate:"gt=0"`
	RequestsPerSecond  float64       `validate:"gte=0"`
	ExtraLabelsField   string        `validate:"required"`
}

// TraversalConfig holds the limits of a sunburst traversal.
type TraversalConfig struct {
	GoalProject      string        `validate:"required"`
	GoalIssueType    string        `validate:"required"`
	Timeout          time.Duration `validate:"gt=0"`
	MaxNodes         int           `validate:"min=1"`
	BatchSize        int           `validate:"min=1,max=50"`
	FetchConcurrency int           `validate:"min=1"`
	CacheTTL         time.Duration `validate:"gte=0"`
}

// VersionsConfig holds PI version listing configuration.
type VersionsConfig struct {
	CacheTTL time.Duration `validate:"gte=0"`
	MinPI    string        `validate:"required,startswith=PI"`
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// BrowseURL returns the base URL of issue pages.
func (c JiraConfig) BrowseURL() string {
	return c.BaseURL + "/browse"
}

var bindings = map[string]string{
	"port":                       "PORT",
	"app_origin":                 "APP_ORIGIN",
	"app_env":                    "APP_ENV",
	"static_dir":                 "STATIC_DIR",
	"jira_base_url":              "JIRA_BASE_URL",
	"jira_token":                 "JIRA_TOKEN",
	"jira_username":              "JIRA_USERNAME",
	"jira_reject_unauthorized":   "JIRA_REJECT_UNAUTHORIZED",
	"jira_request_timeout_ms":    "JIRA_REQUEST_TIMEOUT_MS",
	"jira_traversal_timeout_ms":  "JIRA_TRAVERSAL_TIMEOUT_MS",
	"jira_requests_per_second":   "JIRA_REQUESTS_PER_SECOND",
	"jira_extra_labels_field":    "JIRA_EXTRA_LABELS_FIELD",
	"goal_project":               "GOAL_PROJECT",
	"goal_issue_type":            "GOAL_ISSUE_TYPE",
	"sunburst_max_nodes":         "SUNBURST_MAX_NODES",
	"sunburst_batch_size":        "SUNBURST_BATCH_SIZE",
	"sunburst_fetch_concurrency": "SUNBURST_FETCH_CONCURRENCY",
	"sunburst_cache_ttl_ms":      "SUNBURST_CACHE_TTL_MS",
	"version_cache_ttl_ms":       "VERSION_CACHE_TTL_MS",
	"version_min_pi":             "VERSION_MIN_PI",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("app_origin", "http://localhost:5173")
	v.SetDefault("app_env", "development")
	v.SetDefault("jira_reject_unauthorized", true)
	v.SetDefault("jira_request_timeout_ms", 10000)
	v.SetDefault("jira_traversal_timeout_ms", 30000)
	v.SetDefault("jira_requests_per_second", 10)
	v.SetDefault("jira_extra_labels_field", "customfield_12001")
	v.SetDefault("goal_project", "TPO")
	v.SetDefault("goal_issue_type", "Goal")
	v.SetDefault("sunburst_max_nodes", 1500)
	v.SetDefault("sunburst_batch_size", 50)
	v.SetDefault("sunburst_fetch_concurrency", 4)
	v.SetDefault("sunburst_cache_ttl_ms", 0)
	v.SetDefault("version_cache_ttl_ms", 300000)
	v.SetDefault("version_min_pi", "PI28")
}

// LoadConfig initializes and loads configuration from environment variables,
// falling back to envFile (or DefaultEnvFile when empty) and then to defaults.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := readEnvFile(v, envFile); err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:      v.GetInt("port"),
			Origins:   splitList(v.GetString("app_origin")),
			Env:       v.GetString("app_env"),
			StaticDir: v.GetString("static_dir"),
		},
		Jira: JiraConfig{
			BaseURL:            strings.TrimRight(strings.TrimSpace(v.GetString("jira_base_url")), "/"),
			Token:              strings.TrimSpace(v.GetString("jira_token")),
			Username:           strings.TrimSpace(v.GetString("jira_username")),
			RejectUnauthorized: v.GetBool("jira_reject_unauthorized"),
			RequestTimeout:     millis(v, "jira_request_timeout_ms"),
			RequestsPerSecond:  v.GetFloat64("jira_requests_per_second"),
			ExtraLabelsField:   v.GetString("jira_extra_labels_field"),
		},
		Traversal: TraversalConfig{
			GoalProject:      v.GetString("goal_project"),
			GoalIssueType:    v.GetString("goal_issue_type"),
			Timeout:          millis(v, "jira_traversal_timeout_ms"),
			MaxNodes:         v.GetInt("sunburst_max_nodes"),
			BatchSize:        v.GetInt("sunburst_batch_size"),
			FetchConcurrency: v.GetInt("sunburst_fetch_concurrency"),
			CacheTTL:         millis(v, "sunburst_cache_ttl_ms"),
		},
		Versions: VersionsConfig{
			CacheTTL: millis(v, "version_cache_ttl_ms"),
			MinPI:    strings.ToUpper(v.GetString("version_min_pi")),
		},
	}

	if err := ValidateJiraConfig(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func readEnvFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateConfig checks value ranges once required variables are known to be set.
func validateConfig(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.BaseURL == "" {
		missingVars = append(missingVars, "JIRA_BASE_URL")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
