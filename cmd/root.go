package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hn-frontpage/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  config.Config
)

// envKeys are the config keys that may be overridden from HNFP_* variables.
var envKeys = []string{
	"app.log_level",
	"source.base_url", "source.tags", "source.hits_per_page", "source.timeout",
	"cache.enabled", "cache.ttl",
	"redis.addr", "redis.username", "redis.password", "redis.db",
	"server.addr", "server.refresh_interval",
}

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "hn-frontpage",
	Short:        "Browse the Hacker News front page",
	Long:         "Fetch the top Hacker News front-page stories and filter them by title, in the terminal or in a browser.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hn-frontpage")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix("HNFP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: appCfg.SlogLevel()})))
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
