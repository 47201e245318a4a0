package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verifyhub/internal/classify"
	"github.com/ppiankov/verifyhub/internal/logger"
	"github.com/ppiankov/verifyhub/internal/model"
)

// Version is set at build time
var Version = "v0.3.0"

var (
	cfgFile     string
	markersFile string
	verbose     bool

	// appConfig is loaded once before any subcommand runs
	appConfig *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verifyhub",
	Short: "VerifyHub - course certificate and social post evidence checks",
	Long: `VerifyHub checks that a learner's course certificate and the social post
announcing it are real, public and belong to the same person.

Given a certificate URL, a post URL and optionally the claimed full name,
it fetches both pages and reports a structured verdict with user-facing
reasons for every failed check.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		initLogger(cfg.Log)
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "verifyhub %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verifyhub/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&markersFile, "markers", "", "YAML file overriding the page marker lists")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("markers_file", rootCmd.PersistentFlags().Lookup("markers"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.verifyhub")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VERIFYHUB_SERVER_ADDR maps to server.addr
	viper.SetEnvPrefix("VERIFYHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv registers the keys AutomaticEnv cannot discover on its own
// because they have no default in viper.
func bindEnv() {
	for _, key := range []string{
		"http.timeout",
		"http.user_agent",
		"http.respect_robots",
		"http.http_proxy",
		"http.https_proxy",
		"http.no_proxy",
		"verify.preserve_fetch_detail",
		"server.addr",
		"server.allowed_origins",
		"server.request_timeout",
		"store.dir",
		"store.memory_only",
		"batch.workers",
		"llm.provider",
		"llm.model",
		"llm.api_key",
		"llm.base_url",
		"log.level",
		"log.format",
		"markers_file",
	} {
		_ = viper.BindEnv(key)
	}
}

// loadConfig layers the config file, environment and flags over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	if path := viper.GetString("markers_file"); path != "" {
		set, err := classify.LoadMarkers(path, cfg.Markers)
		if err != nil {
			return nil, err
		}
		cfg.Markers = set
	}

	return cfg, nil
}

func initLogger(lc model.LogConfig) {
	level := lc.Level
	if verbose {
		level = "debug"
	}
	logger.Init(logger.Options{
		Level:   level,
		Format:  lc.Format,
		Service: "verifyhub",
		Writer:  os.Stderr,
	})
}
