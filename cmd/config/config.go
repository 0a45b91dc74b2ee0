package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-structview/pkg/icons"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
	"github.com/mattsolo1/grove-structview/pkg/source/fsdir"
	"github.com/mattsolo1/grove-structview/pkg/source/jsondoc"
	"github.com/mattsolo1/grove-structview/pkg/source/repo/github"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

var (
	cfgFile  string
	logLevel string
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
)

// Config is the decoded sv configuration.
type Config struct {
	Theme         string       `mapstructure:"theme"`
	AdvancedIcons bool         `mapstructure:"advanced_icons"`
	LogLevel      string       `mapstructure:"log_level"`
	Icons         IconsConfig  `mapstructure:"icons"`
	GitHub        GitHubConfig `mapstructure:"github"`
	JSON          JSONConfig   `mapstructure:"json"`
	FS            FSConfig     `mapstructure:"fs"`
	Sort          SortConfig   `mapstructure:"sort"`
	Export        ExportConfig `mapstructure:"export"`
}

type IconsConfig struct {
	// CacheDir holds the sqlite icon cache. Empty disables persistence.
	CacheDir   string        `mapstructure:"cache_dir"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxEntries int           `mapstructure:"max_entries"`
}

type GitHubConfig struct {
	APIURL string `mapstructure:"api_url"`
	// Transport is "rest" or "gh".
	Transport string `mapstructure:"transport"`
	Token     string `mapstructure:"token"`
}

type JSONConfig struct {
	PriorityFields []string `mapstructure:"priority_fields"`
}

type FSConfig struct {
	ShowHidden      bool `mapstructure:"show_hidden"`
	PeekConcurrency int  `mapstructure:"peek_concurrency"`
}

type SortConfig struct {
	Collation string `mapstructure:"collation"`
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
	// Color keeps theme colors in text exports.
	Color bool `mapstructure:"color"`
}

// InitConfig points viper at the config file named by the --config flag of
// cmd, or at $HOME/.config/sv/config.yaml.
func InitConfig(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup(configFlag); f != nil {
		cfgFile = f.Value.String()
	}
	if f := cmd.Flags().Lookup(logLevelFlag); f != nil {
		logLevel = f.Value.String()
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "sv")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: could not read config %s: %v\n", cfgFile, err)
		}
	}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("theme", string(render.ThemeSystem))
	v.SetDefault("advanced_icons", false)
	v.SetDefault("log_level", "warn")

	v.SetDefault("icons.cache_dir", defaultCacheDir())
	v.SetDefault("icons.base_url", icons.DefaultBaseURL)
	v.SetDefault("icons.timeout", 10*time.Second)
	v.SetDefault("icons.max_entries", icons.DefaultMaxEntries)

	v.SetDefault("github.api_url", github.DefaultAPIURL)
	v.SetDefault("github.transport", "rest")
	v.SetDefault("github.token", os.Getenv("GITHUB_TOKEN"))

	v.SetDefault("json.priority_fields", jsondoc.DefaultPriorityFields)

	fsDefaults := fsdir.DefaultOptions()
	v.SetDefault("fs.show_hidden", fsDefaults.ShowHidden)
	v.SetDefault("fs.peek_concurrency", fsDefaults.PeekConcurrency)

	v.SetDefault("sort.collation", tree.CollationBinary.String())

	v.SetDefault("export.format", string(snapshot.FormatText))
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.color", false)
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sv")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated keys.
func (c *Config) Validate() error {
	if _, err := render.ParseTheme(c.Theme); err != nil {
		return fmt.Errorf("invalid theme: %w", err)
	}
	if _, err := tree.ParseCollation(c.Sort.Collation); err != nil {
		return fmt.Errorf("invalid sort.collation: %w", err)
	}
	if _, err := snapshot.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("invalid export.format: %w", err)
	}
	switch c.GitHub.Transport {
	case "rest", "gh":
	default:
		return fmt.Errorf("invalid github.transport %q: expected rest or gh", c.GitHub.Transport)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.Icons.MaxEntries <= 0 {
		return fmt.Errorf("invalid icons.max_entries %d: must be positive", c.Icons.MaxEntries)
	}
	if c.FS.PeekConcurrency <= 0 {
		return fmt.Errorf("invalid fs.peek_concurrency %d: must be positive", c.FS.PeekConcurrency)
	}
	return nil
}

// Logger returns a stderr logrus logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// AddGlobalFlags registers --config and --log-level unless the standard
// command already defines them.
func AddGlobalFlags(cmd *cobra.Command) {
	if cmd.PersistentFlags().Lookup(configFlag) == nil {
		cmd.PersistentFlags().String(configFlag, "", "config file (default is $HOME/.config/sv/config.yaml)")
	}
	if cmd.PersistentFlags().Lookup(logLevelFlag) == nil {
		cmd.PersistentFlags().String(logLevelFlag, "", "log level (debug, info, warn, error)")
	}
}
