// Command pubtrend searches an asynchronous publication backend and shows
// ranked articles with their publication trend. Without a subcommand it
// opens the interactive terminal UI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abelbrown/pubtrend/internal/config"
	"github.com/abelbrown/pubtrend/internal/otel"
)

// version is set at build time via ldflags.
var version = "dev"

// v holds flags, environment and config file values for every command.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "pubtrend",
	Short: "Search publications and chart their trend",
	Long: `pubtrend submits a query to an asynchronous search backend, checks its
status every 5 seconds until the results are ready, then shows the ranked
articles and a publication-trend chart.

Run without arguments for the interactive terminal UI, use "pubtrend search"
for a one-shot query, and "pubtrend serve" for a local development backend.`,
	SilenceUsage:     true,
	PersistentPreRun: applyTrace,
	RunE:             runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pubtrend version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "pubtrend", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pubtrend.yaml or ~/.config/pubtrend/pubtrend.yaml)")
	pf.String("backend", "", "search backend base URL")
	pf.String("data-dir", "", "directory for logs and the dev backend database")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("trace", false, "record every UI message in the event log (same as PUBTREND_TRACE=1)")

	_ = v.BindPFlag(config.KeyBackendURL, pf.Lookup("backend"))
	_ = v.BindPFlag(config.KeyDataDir, pf.Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))

	rootCmd.AddCommand(searchCmd, serveCmd, versionCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}

	config.SetDefaults(v)
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.AddSearchPaths(v, cfgFile)
	if err := config.Read(v); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

// applyTrace turns on message tracing when --trace is given. Without the
// flag PUBTREND_TRACE still applies.
func applyTrace(cmd *cobra.Command, args []string) {
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		otel.SetTraceEnabled(true)
	}
}

// loadConfig resolves the configuration for the running command.
func loadConfig() (config.Config, error) {
	return config.Load(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
