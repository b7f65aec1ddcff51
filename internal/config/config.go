// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Jira transports.
const (
	TransportREST = "rest"
	TransportMCP  = "mcp"
)

const (
	defaultGitHubDomain   = "github.com"
	defaultGitHubOwner    = "InfiniumDevIO"
	defaultDeployment     = "gpt-4o"
	defaultS3Region       = "us-east-1"
	defaultMaxResults     = 100
	defaultCommitLimit    = 100
	defaultCommitWorkers  = 1
	defaultProjectDelay   = 2 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultConfigName     = ".ticketpulse"
	defaultArtifactDir    = "."
	defaultHTTPAddr       = ":8080"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub   GitHubConfig
	Jira     JiraConfig
	Oracle   OracleConfig
	Slack    SlackConfig
	Artifact ArtifactConfig
	Analysis AnalysisConfig
	HTTP     HTTPConfig

	// Repositories maps a project key to "owner/name" repository identifiers.
	// Keys arrive lower-cased from viper; repomap normalizes them.
	Repositories map[string][]string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
	// Owner qualifies repository entries given without an owner.
	Owner string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
	// Transport is "rest" (go-jira) or "mcp" (a Jira MCP server over stdio).
	Transport string
	// MCPCommand is the command line that starts the Jira MCP server.
	MCPCommand string
	MaxResults int
}

// OracleConfig holds the Azure OpenAI deployment used for classification.
type OracleConfig struct {
	Endpoint   string
	Key        string
	Deployment string
}

// Configured reports whether the oracle can be constructed. An unconfigured
// oracle is not an error: classification falls back to PENDING.
func (o OracleConfig) Configured() bool {
	return o.Endpoint != "" && o.Key != "" && o.Deployment != ""
}

// SlackConfig holds the optional chat notification target.
type SlackConfig struct {
	Token   string
	Channel string
}

// Configured reports whether notifications should be sent.
func (s SlackConfig) Configured() bool {
	return s.Token != "" && s.Channel != ""
}

// ArtifactConfig selects where analysis documents are written.
type ArtifactConfig struct {
	Dir      string
	S3Bucket string
	S3Region string
}

// AnalysisConfig holds limits, pacing and timeouts for a run.
type AnalysisConfig struct {
	CommitLimit       int
	CommitConcurrency int
	ProjectDelay      time.Duration
	RequestTimeout    time.Duration
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr string
}

// LoadConfig initializes and loads configuration from an optional YAML file and
// environment variables. An empty configFile searches for .ticketpulse.yaml in the
// working directory and $HOME; a missing file there is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	repositories, err := loadRepositories(v)
	if err != nil {
		return nil, err
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
			Owner:  v.GetString("github.owner"),
		},
		Jira: JiraConfig{
			URL:        strings.TrimRight(v.GetString("jira.url"), "/"),
			Username:   v.GetString("jira.username"),
			Token:      v.GetString("jira.token"),
			Transport:  strings.ToLower(v.GetString("jira.transport")),
			MCPCommand: v.GetString("jira.mcp_command"),
			MaxResults: v.GetInt("jira.max_results"),
		},
		Oracle: OracleConfig{
			Endpoint:   v.GetString("oracle.endpoint"),
			Key:        v.GetString("oracle.key"),
			Deployment: v.GetString("oracle.deployment"),
		},
		Slack: SlackConfig{
			Token:   v.GetString("slack.token"),
			Channel: v.GetString("slack.channel"),
		},
		Artifact: ArtifactConfig{
			Dir:      v.GetString("artifact.dir"),
			S3Bucket: v.GetString("artifact.s3_bucket"),
			S3Region: v.GetString("artifact.s3_region"),
		},
		Analysis: AnalysisConfig{
			CommitLimit:       v.GetInt("commits.limit"),
			CommitConcurrency: v.GetInt("commits.concurrency"),
			ProjectDelay:      v.GetDuration("analysis.delay"),
			RequestTimeout:    v.GetDuration("timeouts.request"),
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Repositories: repositories,
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = defaultGitHubDomain
	}
	if config.Analysis.CommitConcurrency < 1 {
		config.Analysis.CommitConcurrency = defaultCommitWorkers
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.domain", defaultGitHubDomain)
	v.SetDefault("github.owner", defaultGitHubOwner)
	v.SetDefault("jira.transport", TransportREST)
	v.SetDefault("jira.max_results", defaultMaxResults)
	v.SetDefault("oracle.deployment", defaultDeployment)
	v.SetDefault("artifact.dir", defaultArtifactDir)
	v.SetDefault("artifact.s3_region", defaultS3Region)
	v.SetDefault("commits.limit", defaultCommitLimit)
	v.SetDefault("commits.concurrency", defaultCommitWorkers)
	v.SetDefault("analysis.delay", defaultProjectDelay)
	v.SetDefault("timeouts.request", defaultRequestTimeout)
	v.SetDefault("http.addr", defaultHTTPAddr)
}

// Map specific environment variables
func bindEnv(v *viper.Viper) {
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("github.owner", "GITHUB_OWNER")
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("jira.transport", "JIRA_TRANSPORT")
	v.BindEnv("jira.mcp_command", "JIRA_MCP_COMMAND")
	v.BindEnv("oracle.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("oracle.key", "AZURE_OPENAI_KEY")
	v.BindEnv("oracle.deployment", "AZURE_OPENAI_DEPLOYMENT")
	v.BindEnv("slack.token", "SLACK_BOT_TOKEN")
	v.BindEnv("slack.channel", "SLACK_CHANNEL")
	v.BindEnv("artifact.dir", "ARTIFACT_DIR")
	v.BindEnv("artifact.s3_bucket", "ARTIFACT_S3_BUCKET")
	v.BindEnv("artifact.s3_region", "ARTIFACT_S3_REGION")
	v.BindEnv("http.addr", "HTTP_ADDR")
}

// loadRepositories reads the repositories table. A nil map means the file did
// not define one and the built-in table applies.
func loadRepositories(v *viper.Viper) (map[string][]string, error) {
	if !v.IsSet("repositories") {
		return nil, nil
	}
	raw := v.GetStringMapStringSlice("repositories")
	if len(raw) == 0 {
		return nil, fmt.Errorf("invalid repositories table in %s", filepath.Base(v.ConfigFileUsed()))
	}
	return raw, nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variables: %v", []string{"GITHUB_TOKEN"})
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration for the selected transport.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	switch config.Jira.Transport {
	case TransportMCP:
		if config.Jira.MCPCommand == "" {
			missingVars = append(missingVars, "JIRA_MCP_COMMAND")
		}
	case TransportREST, "":
		if config.Jira.URL == "" {
			missingVars = append(missingVars, "JIRA_URL")
		}
		if config.Jira.Username == "" {
			missingVars = append(missingVars, "JIRA_USERNAME")
		}
		if config.Jira.Token == "" {
			missingVars = append(missingVars, "JIRA_TOKEN")
		}
	default:
		return fmt.Errorf("unsupported JIRA_TRANSPORT %q, expected %q or %q", config.Jira.Transport, TransportREST, TransportMCP)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
