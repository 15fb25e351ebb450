// Package config loads tracker credentials and import settings.
//
// Sources, highest precedence first:
//
//	process environment (JIRA_API_URL, JIRA_EMAIL, JIRA_API_TOKEN, JIRA_PROJECT_KEY)
//	.env.jira at the project root (export KEY=value lines)
//	.dp2j.toml at the project root
//	built-in defaults
//
// .env.jira is only read when the three credential variables are not all set
// in the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// FileName is the optional settings file at the project root.
	FileName = ".dp2j.toml"
	// EnvFile holds exported credentials at the project root.
	EnvFile = ".env.jira"

	envPrefix = "JIRA_"

	DefaultMappingFile = "jira-issue-mapping.json"
	DefaultHistoryFile = ".jira-import-history.json"
	DefaultLogLevel    = "info"
)

// Config is the resolved configuration for one project.
type Config struct {
	APIURL          string     `toml:"api_url"`
	Email           string     `toml:"email"`
	APIToken        Secret     `toml:"api_token"`
	ProjectKey      string     `toml:"project_key"`
	IssueTypes      IssueTypes `toml:"issue_types"`
	TasksAsSubtasks bool       `toml:"tasks_as_subtasks"`
	LogLevel        string     `toml:"log_level"`
	MappingFile     string     `toml:"mapping_file"`
	HistoryFile     string     `toml:"history_file"`

	// Root is the project root the config was loaded from.
	Root string `toml:"-"`
}

// Default returns a Config with only defaults set.
func Default() *Config {
	return &Config{
		IssueTypes:  DefaultIssueTypes(),
		LogLevel:    DefaultLogLevel,
		MappingFile: DefaultMappingFile,
		HistoryFile: DefaultHistoryFile,
	}
}

// Load resolves configuration for the project rooted at root.
func Load(root string) (*Config, error) {
	cfg := Default()
	cfg.Root = root

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	k := koanf.New(".")
	if !credentialsInEnv() {
		if err := k.Load(dotenvProvider(filepath.Join(root, EnvFile)), nil); err != nil {
			return nil, fmt.Errorf("loading %s: %w", EnvFile, err)
		}
	}
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	overlay(&cfg.APIURL, k.String("api_url"))
	overlay(&cfg.Email, k.String("email"))
	overlay(&cfg.ProjectKey, k.String("project_key"))
	if token := k.String("api_token"); token != "" {
		cfg.APIToken = Secret(token)
	}

	cfg.IssueTypes = cfg.IssueTypes.withDefaults()
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MappingFile == "" {
		cfg.MappingFile = DefaultMappingFile
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	return cfg, nil
}

// Validate reports every missing credential or project setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.APIURL == "" {
		missing = append(missing, "JIRA_API_URL")
	}
	if c.Email == "" {
		missing = append(missing, "JIRA_EMAIL")
	}
	if !c.APIToken.IsSet() {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if c.ProjectKey == "" {
		missing = append(missing, "JIRA_PROJECT_KEY")
	}
	if len(missing) > 0 {
		return &MissingVarsError{Vars: missing}
	}
	return nil
}

// ValidateCredentials is Validate without the project key, for commands that
// act on existing issues.
func (c *Config) ValidateCredentials() error {
	err := c.Validate()
	mv, ok := err.(*MissingVarsError)
	if !ok {
		return err
	}
	vars := mv.Vars[:0]
	for _, v := range mv.Vars {
		if v != "JIRA_PROJECT_KEY" {
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return &MissingVarsError{Vars: vars}
}

// Resolve joins a project-relative file name onto the root.
func (c *Config) Resolve(name string) string {
	if filepath.IsAbs(name) || c.Root == "" {
		return name
	}
	return filepath.Join(c.Root, name)
}

// JIRA_API_URL -> api_url
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

// envValue drops empty variables so they do not mask lower layers.
func envValue(key, value string) (string, interface{}) {
	if value == "" {
		return "", nil
	}
	return envKey(key), value
}

func credentialsInEnv() bool {
	return os.Getenv("JIRA_API_URL") != "" &&
		os.Getenv("JIRA_EMAIL") != "" &&
		os.Getenv("JIRA_API_TOKEN") != ""
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
