package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/trustlens/internal/model"
)

const configHierarchy = `Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (TRUSTLENS_*, GROQ_API_KEY, GROQ_MODEL, OPENAI_API_KEY,
     ANTHROPIC_API_KEY, OLLAMA_BASE_URL, PORT)
  3. Config file (~/.trustlens/config.yaml)
  4. Defaults`

const (
	configHeader = `# TrustLens configuration
#
# Environment variables use the TRUSTLENS_ prefix with sections joined by
# underscores, e.g. TRUSTLENS_CRAWL_WORKERS=8.
#
# Evidence caps (sources, domains, iterations) are fixed and not configurable.

`
	configFooter = `
# Prefer environment variables for API keys:
#   export GROQ_API_KEY=gsk_...
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export OLLAMA_BASE_URL=http://localhost:11434
`
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage TrustLens configuration",
	Long:  "Manage TrustLens configuration files and settings.\n\n" + configHierarchy,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file and environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		data, err := marshalRedacted(cfg)
		if err != nil {
			return err
		}

		source := "none (using defaults)"
		if used := viper.ConfigFileUsed(); used != "" {
			source = used
		}
		fmt.Fprintf(os.Stderr, "Configuration file: %s\n", source)

		out := cmd.OutOrStdout()
		banner(out, "Current Configuration")
		fmt.Fprintf(out, "%s\n%s\n", data, configHierarchy)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.trustlens/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		path, err := writeDefaultConfig(filepath.Join(home, ".trustlens"))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n\n"+
			"View it with:\n  trustlens config show\n\nEdit it with:\n  $EDITOR %s\n", path, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

// marshalRedacted renders the config as YAML with the API key masked
func marshalRedacted(cfg *model.Config) ([]byte, error) {
	shown := *cfg
	if shown.LLM.APIKey != "" {
		shown.LLM.APIKey = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// writeDefaultConfig creates dir/config.yaml from the defaults. An existing
// file is never overwritten.
func writeDefaultConfig(dir string) (string, error) {
	path := filepath.Join(dir, "config.yaml")

	body, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("config file already exists: %s (delete it first to recreate)", path)
	}
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}

	_, err = fmt.Fprintf(f, "%s%s%s", configHeader, body, configFooter)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
