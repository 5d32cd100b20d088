package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/am"
	"gopkg.in/yaml.v3"
)

// ConfigCmd manages cadence configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cadence configuration",
	Long: `Display and manage cadence configuration.

Configuration sources (in order of precedence):
1. Environment variables (CADENCE_* prefix)
2. Project config (cadence.toml, searched upward from the working directory)
3. User config (~/.cadence/config.toml)
4. System config (/etc/cadence/config.toml)
5. Default values

Examples:
  cadence config show                 # Show current configuration
  cadence config show --format json   # Show configuration in JSON format
  cadence config get database.path    # Get specific config value
  cadence config validate             # Validate current configuration
  cadence config where                # Show the configuration cascade
  cadence config settings             # Show persisted host settings`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current cadence configuration from all sources",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, gate.titles)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current cadence configuration is valid",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files were checked.

Lists all configuration sources in order of precedence, showing
which files exist and which are missing.`,
	RunE: runConfigWhere,
}

var configSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show persisted host settings",
	Long:  "Display the host settings persisted at ~/.cadence/settings.toml: last document, selection, and run state.",
	RunE:  runConfigSettings,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
	ConfigCmd.AddCommand(configSettingsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Printf("# cadence configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# cadence configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}

	fmt.Println(am.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration cascade (later overrides earlier):")
	fmt.Println("  1. [DEFAULT]  Built-in defaults")
	fmt.Println("  2. [SYSTEM]   /etc/cadence/config.toml")
	fmt.Println("  3. [USER]     ~/.cadence/config.toml")
	fmt.Println("  4. [PROJECT]  cadence.toml (searched upward from the working directory)")
	fmt.Println("  5. [ENV]      CADENCE_* environment variables")
	fmt.Println()

	home, _ := os.UserHomeDir()
	checkConfigFile("SYSTEM ", "/etc/cadence/config.toml")
	checkConfigFile("USER   ", filepath.Join(home, ".cadence", "config.toml"))

	// Walk up from the working directory the way the loader does.
	project := ""
	if dir, err := os.Getwd(); err == nil {
		for {
			candidate := filepath.Join(dir, "cadence.toml")
			if _, err := os.Stat(candidate); err == nil {
				project = candidate
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if project != "" {
		fmt.Printf("  [PROJECT] %s (exists)\n", project)
	} else {
		fmt.Println("  [PROJECT] cadence.toml (not found)")
	}

	fmt.Println()
	fmt.Printf("Host settings: %s\n", am.GetSettingsPath())
	return nil
}

func checkConfigFile(label, path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  [%s] %s (exists)\n", label, path)
	} else {
		fmt.Printf("  [%s] %s (missing)\n", label, path)
	}
}

func runConfigSettings(cmd *cobra.Command, args []string) error {
	settings, err := am.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load host settings: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	fmt.Printf("# %s\n%s", am.GetSettingsPath(), string(data))
	return nil
}
