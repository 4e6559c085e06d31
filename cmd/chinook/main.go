package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "chinook",
		Short: "Chinook Insights - sales analytics for the Chinook music store",
		Long: `chinook loads the Chinook music store dataset from CSV exports or SQLite,
joins it into an enriched sales fact table and a track catalog, and reports
revenue trends, rankings, customer lifetime value and RFM segments.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetLogLevel(util.ParseLogLevel(viper.GetString("log-level")))
			util.SetVerbose(viper.GetBool("verbose"))
			util.SetQuiet(viper.GetBool("quiet"))
			if viper.GetBool("no-color") {
				util.SetColors(false)
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/chinook.yaml)")
	rootCmd.PersistentFlags().String("source", "csv", "where to read tables from: csv or sqlite")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory of Chinook CSV files")
	rootCmd.PersistentFlags().String("db", "chinook.db", "SQLite database file")
	rootCmd.PersistentFlags().Bool("strict", false, "fail on unresolved foreign keys instead of dropping rows")
	rootCmd.PersistentFlags().String("events-dir", "", "directory for JSONL event logs (disabled when empty)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")

	// Bind flags to viper
	for _, name := range []string{"source", "data-dir", "db", "strict", "events-dir", "log-level", "verbose", "quiet", "no-color"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("chinook")
		viper.SetConfigType("yaml")
	}

	// CHINOOK_DATA_DIR, CHINOOK_RFM_AS_OF, ...
	viper.SetEnvPrefix("CHINOOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
