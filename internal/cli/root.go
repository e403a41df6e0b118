package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is stamped by release builds via -ldflags.
var version = "0.1.0-dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "evidentia",
	Short: "Evidentia - Budgeted multi-hop evidence retrieval for claims",
	Long: `Evidentia gathers the evidence needed to verify factual claims from
large document collections, under a strict retrieval budget.

It does not decide whether a claim is true. Given a claim, it plans
search queries, retrieves candidates over several hops, pools and
reranks them, and emits a small, bounded evidence set together with the
full retrieval trace.

A claim passes evaluation only when every gold evidence title appears
in that bounded set. Evidentia finds the evidence; judging it is the
reader's job.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute dispatches to the selected subcommand.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("evidentia " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.evidentia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig locates the config file and wires the EVIDENTIA_* env
// namespace. A missing config file is fine; defaults cover it.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".evidentia"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("EVIDENTIA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
