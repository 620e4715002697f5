package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"jwlrep/worklog"
)

const (
	KeyCredentialsServer   = "credentials.server"
	KeyCredentialsUsername = "credentials.username"
	KeyCredentialsPassword = "credentials.password"
	KeyOptionsWeek         = "options.week"
	KeyOptionsUsers        = "options.users"
	KeyOutputPath          = "output.path"
	KeyOutputFormat        = "output.format"
	KeyHTTPTimeout         = "http.timeout"
	KeyHTTPMaxConcurrency  = "http.max_concurrency"
	KeyHTTPRequestsPerSec  = "http.requests_per_second"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
	KeyJournalPath         = "journal.path"

	// EnvPrefix namespaces environment overrides, e.g. JWLREP_CREDENTIALS_PASSWORD.
	EnvPrefix = "JWLREP"
)

type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials" validate:"required"`
	Options     OptionsConfig     `mapstructure:"options" validate:"required"`
	Output      OutputConfig      `mapstructure:"output"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	Journal     JournalConfig     `mapstructure:"journal"`
}

type CredentialsConfig struct {
	Server   string `mapstructure:"server" validate:"required,url"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

type OptionsConfig struct {
	Week  int      `mapstructure:"week" validate:"required,min=1,max=53"`
	Users []string `mapstructure:"users" validate:"required,min=1,unique,dive,required"`
}

type OutputConfig struct {
	Path   string `mapstructure:"path" validate:"required"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=excel xlsx csv"`
}

type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxConcurrency    int           `mapstructure:"max_concurrency" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// FileType maps a config file path to the format viper reads it as.
func FileType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// ValidateContent validates raw configuration content of fileType ("toml" or "yaml").
func ValidateContent(content []byte, fileType string) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType(fileType)
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read %s config content: %w", fileType, err)
	}
	return loadAndValidateFromViper(local)
}

// Example returns the configuration template for fileType.
func Example(fileType string) string {
	if fileType == "toml" {
		return ExampleTOML()
	}
	return ExampleYAML()
}

// ExampleTOML mirrors ExampleYAML for jwlrep.toml next to the executable.
func ExampleTOML() string {
	return `# jwlrep configuration
[credentials]
server = "https://jira.example.com"
username = "reporter"
# Prefer JWLREP_CREDENTIALS_PASSWORD or a .env file over storing the password here.
password = "change-me"

[options]
week = 1
users = ["alice", "bob"]

[output]
path = "report.xlsx"
format = ""

[http]
timeout = "30s"
max_concurrency = 0
requests_per_second = 0.0

[log]
level = "info"
format = "console"

[journal]
path = ""
`
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# jwlrep configuration
credentials:
  server: "https://jira.example.com"
  username: "reporter"
  # Prefer JWLREP_CREDENTIALS_PASSWORD or a .env file over storing the password here.
  password: "change-me"

options:
  week: 1
  users:
    - "alice"
    - "bob"

output:
  path: "report.xlsx"
  format: ""

http:
  timeout: "30s"
  max_concurrency: 0
  requests_per_second: 0

log:
  level: "info"
  format: "console"

journal:
  path: ""
`
}

// ConfigureEnv lets JWLREP_* environment variables override file values.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %w", worklog.ErrInvalidConfiguration, err)
	}

	cfg.Credentials.Server = strings.TrimRight(strings.TrimSpace(cfg.Credentials.Server), "/")
	for i, user := range cfg.Options.Users {
		cfg.Options.Users[i] = strings.TrimSpace(user)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %w", worklog.ErrInvalidConfiguration, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCredentialsServer, "")
	v.SetDefault(KeyCredentialsUsername, "")
	v.SetDefault(KeyCredentialsPassword, "")
	v.SetDefault(KeyOptionsWeek, 0)
	v.SetDefault(KeyOptionsUsers, []string{})
	v.SetDefault(KeyOutputPath, "report.xlsx")
	v.SetDefault(KeyOutputFormat, "")
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
	v.SetDefault(KeyHTTPMaxConcurrency, 0)
	v.SetDefault(KeyHTTPRequestsPerSec, 0.0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyJournalPath, "")
}
