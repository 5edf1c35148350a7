package utils

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ConfigOptions holds configuration loading options
type ConfigOptions struct {
	ConfigPath  string
	ConfigName  string
	ConfigType  string
	EnvPrefix   string
	DefaultsMap map[string]interface{}
}

// NewViperConfig loads the application config file with env-var overrides.
func NewViperConfig() (*viper.Viper, error) {
	return NewViperConfigWithOptions(ConfigOptions{
		ConfigPath: "./config",
		ConfigName: "brandwatch",
		ConfigType: "yaml",
		EnvPrefix:  "BRANDWATCH",
		DefaultsMap: map[string]interface{}{
			"store.dir":                 "./expand_targetlist",
			"browser.headless":          true,
			"browser.page_load_timeout": "60s",
			"discovery.branch":          "logo2brand",
			"discovery.similarity":      0.83,
			"supervisor.recycle_every":  500,
			"supervisor.restart_budget": 50,
			"report.path":               "./results.txt",
		},
	})
}

// NewViperConfigWithOptions creates a Viper configuration with custom options
func NewViperConfigWithOptions(opts ConfigOptions) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType(opts.ConfigType)

	// Add multiple search paths for flexibility
	configPaths := []string{opts.ConfigPath}
	if opts.ConfigPath != "./config" {
		configPaths = append(configPaths, "./config")
	}
	configPaths = append(configPaths, "/etc/brandwatch", "$HOME/.brandwatch")

	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	v.SetConfigName(opts.ConfigName)

	// Enable environment variable support
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	}

	for key, value := range opts.DefaultsMap {
		v.SetDefault(key, value)
	}

	log.Infof("Searching for config file: %s in paths: %v", opts.ConfigName, configPaths)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Env-only operation is fine; all keys have defaults or env overrides.
			log.Warnf("Config file '%s' not found, using defaults and environment", opts.ConfigName)
			return v, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Infof("Loaded config file: %s", v.ConfigFileUsed())
	return v, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)

// SafeFileName sanitizes a brand or folder name for filesystem use.
func SafeFileName(name string) string {
	safe := unsafePathChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		safe = "unnamed"
	}
	return safe
}

// EnsureDir creates a directory if it does not already exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
