package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/trustlens/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trustlens",
	Short: "TrustLens - claim fact-checking by evidence crawling",
	Long: `TrustLens checks a claim, a URL, or an uploaded file name against
evidence gathered from the open web.

A run decomposes the claim into sub-claims, discovers candidate links,
crawls them under fixed caps, pivots to new angles when results are
shallow, and synthesizes a verdict with a confidence, an evidence table,
gaps and follow-up recommendations.

Every run is isolated: nothing is persisted between runs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of TrustLens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trustlens %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.trustlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setupViper(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if used := viper.ConfigFileUsed(); used != "" && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
	}
}

// setupViper seeds v with the built-in defaults, merges the config file
// if one exists and binds the environment
func setupViper(v *viper.Viper, file string) error {
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".trustlens"))
		v.SetConfigName("config")
	}

	// Environment variables match TRUSTLENS_<SECTION>_<KEY>
	v.SetEnvPrefix("TRUSTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Collaborator variables shared with other tools
	_ = v.BindEnv("llm.api_key", "TRUSTLENS_LLM_API_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("llm.model", "TRUSTLENS_LLM_MODEL", "GROQ_MODEL")
	_ = v.BindEnv("llm.base_url", "TRUSTLENS_LLM_BASE_URL", "OLLAMA_BASE_URL")

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadConfig decodes the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// A Groq key alone selects Groq
	if cfg.LLM.Provider == "" && os.Getenv("GROQ_API_KEY") != "" {
		cfg.LLM.Provider = "groq"
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		cfg.LLM.APIKey = providerKey(cfg.LLM.APIKey, "OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = providerKey(cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	return cfg, nil
}

// providerKey prefers the provider's own key variable unless the key was
// set explicitly for TrustLens
func providerKey(current, env string) string {
	if os.Getenv("TRUSTLENS_LLM_API_KEY") != "" {
		return current
	}
	if key := os.Getenv(env); key != "" {
		return key
	}
	return current
}

// newLogger returns a development console logger when verbose, a
// production JSON logger for long-running services, and a no-op otherwise
func newLogger(production bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	switch {
	case verbose:
		logger, err = zap.NewDevelopment()
	case production:
		logger, err = zap.NewProduction()
	default:
		return zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logger setup failed: %v\n", err)
		return zap.NewNop()
	}
	return logger
}
