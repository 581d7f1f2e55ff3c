package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// Config represents the CLI configuration.
type Config struct {
	Host         string `json:"host,omitempty"          yaml:"host,omitempty"`
	ClientID     string `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	Output       string `json:"output,omitempty"        yaml:"output,omitempty"`
	Strict       bool   `json:"strict"                  yaml:"strict"`
	Cache        string `json:"cache,omitempty"         yaml:"cache,omitempty"`
	NATSURL      string `json:"nats_url,omitempty"      yaml:"nats_url,omitempty"`
	CacheTTL     string `json:"cache_ttl,omitempty"     yaml:"cache_ttl,omitempty"`
}

// configSetters validate and apply "config set" values, by key.
var configSetters = map[string]func(*Config, string) error{
	"host":          func(c *Config, v string) error { c.Host = v; return nil },
	"client_id":     func(c *Config, v string) error { c.ClientID = v; return nil },
	"client_secret": func(c *Config, v string) error { c.ClientSecret = v; return nil },
	"output": func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = v

			return nil
		default:
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, v)
		}
	},
	"strict": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("strict must be true or false: %w", err)
		}

		c.Strict = b

		return nil
	},
	"cache": func(c *Config, v string) error {
		switch libcal.CacheType(v) {
		case libcal.CacheTypeMemory, libcal.CacheTypeNATS, libcal.CacheTypeNone:
			c.Cache = v

			return nil
		default:
			return fmt.Errorf("%w: %s", libcal.ErrUnsupportedCacheType, v)
		}
	},
	"nats_url": func(c *Config, v string) error { c.NATSURL = v; return nil },
	"cache_ttl": func(c *Config, v string) error {
		_, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("cache_ttl must be a duration: %w", err)
		}

		c.CacheTTL = v

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in the LibCal CLI config file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecret bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if !showSecret && config.ClientSecret != "" {
				config.ClientSecret = constants.MaskedSecret
			}

			return renderOutput(cmd.OutOrStdout(), config, func(w io.Writer) error {
				table := newTable(w, "Setting", "Value")

				for _, row := range [][]string{
					{"host", config.Host},
					{"client_id", config.ClientID},
					{"client_secret", config.ClientSecret},
					{"output", config.Output},
					{"strict", strconv.FormatBool(config.Strict)},
					{"cache", config.Cache},
					{"nats_url", config.NATSURL},
					{"cache_ttl", config.CacheTTL},
				} {
					_ = table.Append(row[0], row[1])
				}

				return renderTable(table)
			})
		},
	}

	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "show the client secret")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + configKeys(),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrConfigKeyUnknown, key)
	}

	return setter(config, value)
}

func unsetConfigValue(config *Config, key string) error {
	if _, ok := configSetters[key]; !ok {
		return fmt.Errorf("%w: %s", constants.ErrConfigKeyUnknown, key)
	}

	switch key {
	case "host":
		config.Host = ""
	case "client_id":
		config.ClientID = ""
	case "client_secret":
		config.ClientSecret = ""
	case "output":
		config.Output = ""
	case "strict":
		config.Strict = false
	case "cache":
		config.Cache = ""
	case "nats_url":
		config.NATSURL = ""
	case "cache_ttl":
		config.CacheTTL = ""
	}

	return nil
}

func configKeys() string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return strings.Join(keys, ", ")
}

// loadConfig returns the effective configuration, flags and environment
// included.
func loadConfig() *Config {
	config := &Config{
		Host:         viper.GetString("host"),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		Output:       viper.GetString("output"),
		Strict:       viper.GetBool("strict"),
		Cache:        viper.GetString("cache"),
		NATSURL:      viper.GetString("nats_url"),
	}

	if ttl := viper.GetDuration("cache_ttl"); ttl > 0 {
		config.CacheTTL = ttl.String()
	}

	return config
}

// loadFileConfig returns only what is stored in the config file, so that
// flags and environment variables are not persisted by "config set".
func loadFileConfig() *Config {
	config := &Config{}

	path, err := configFilePath()
	if err != nil {
		return config
	}

	// path is built from the user's home directory or the --config flag.
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return config
	}

	_ = yaml.Unmarshal(data, config)

	return config
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".libcal", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
