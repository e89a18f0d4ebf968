package utils

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the config layer reads,
// e.g. ELF_INSPECTOR_OUTPUT_FORMAT.
const EnvPrefix = "ELF_INSPECTOR"

// Config represents the application configuration
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Decode DecodeConfig `yaml:"decode" mapstructure:"decode"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OutputConfig holds report configuration
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Checks bool   `yaml:"checks" mapstructure:"checks"`

	// CheckIDs limits the checks run to these IDs. Non-empty implies Checks.
	CheckIDs []string `yaml:"check_ids" mapstructure:"check_ids"`
}

// DecodeConfig holds the decoding policies
type DecodeConfig struct {
	ByteOrder string `yaml:"byte_order" mapstructure:"byte_order"`
	Layout    string `yaml:"layout" mapstructure:"layout"`
	Flags     string `yaml:"flags" mapstructure:"flags"`
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validOutputFormats = []string{"text", "json", "table"}
	validByteOrders    = []string{"little", "header"}
	validLayouts       = []string{"fixed64", "standard"}
	validFlagsModes    = []string{"literal", "bitmask"}
)

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger
}

// NewConfigManager creates a new configuration manager reading files from fs
func NewConfigManager(fs afero.Fs) *ConfigManager {
	v := viper.New()
	v.SetFs(fs)
	return &ConfigManager{
		config: &Config{},
		viper:  v,
		logger: NewDefaultLogger(),
	}
}

// BindFlag makes an explicitly set command-line flag override key.
func (c *ConfigManager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	return c.viper.BindPFlag(key, flag)
}

// LoadConfig loads configuration from file and environment variables.
// An explicitly named file must exist; the search path is optional.
func (c *ConfigManager) LoadConfig(configFile string) error {
	c.setDefaults()

	c.viper.SetEnvPrefix(EnvPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()

	if configFile != "" {
		// An explicit file may lack an extension. The search path below must
		// not set a type, or viper also matches the extensionless binary.
		c.viper.SetConfigType("yaml")
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
	} else {
		c.viper.SetConfigName(AppName)
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/." + AppName)

		if err := c.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	if err := c.viper.Unmarshal(c.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault("log.level", "warn")
	c.viper.SetDefault("log.format", "text")

	c.viper.SetDefault("output.format", "text")
	c.viper.SetDefault("output.checks", false)
	c.viper.SetDefault("output.check_ids", []string{})

	c.viper.SetDefault("decode.byte_order", "little")
	c.viper.SetDefault("decode.layout", "fixed64")
	c.viper.SetDefault("decode.flags", "literal")
}

// validateConfig validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	level, err := ParseLogLevel(c.config.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log.level: %s (valid: %v)", c.config.Log.Level, validLogLevels)
	}
	c.config.Log.Level = string(level)

	fields := []struct {
		key   string
		value *string
		valid []string
	}{
		{"log.format", &c.config.Log.Format, validLogFormats},
		{"output.format", &c.config.Output.Format, validOutputFormats},
		{"decode.byte_order", &c.config.Decode.ByteOrder, validByteOrders},
		{"decode.layout", &c.config.Decode.Layout, validLayouts},
		{"decode.flags", &c.config.Decode.Flags, validFlagsModes},
	}

	for _, f := range fields {
		*f.value = strings.ToLower(*f.value)
		if !contains(f.valid, *f.value) {
			return fmt.Errorf("invalid %s: %s (valid: %v)", f.key, *f.value, f.valid)
		}
	}
	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// ConfigFileUsed returns the file the configuration was read from, if any
func (c *ConfigManager) ConfigFileUsed() string {
	return c.viper.ConfigFileUsed()
}

// SetLogger sets the logger for the config manager
func (c *ConfigManager) SetLogger(logger *Logger) {
	c.logger = logger
}

// SetConfigValue sets a configuration value by key, overriding every other source
func (c *ConfigManager) SetConfigValue(key string, value interface{}) {
	c.viper.Set(key, value)
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
