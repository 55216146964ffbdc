// Command phantommail generates realistic fake logistics emails with a
// language model and sends them to test inboxes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/phantommail/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// v holds configuration for every command. Flags bind into it in init.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "phantommail",
	Short: "Generate and send fake logistics emails",
	Long: `phantommail writes realistic transport orders, customs declarations,
customer questions, complaints and other logistics emails with a language
model, renders any attached documents to PDF, and delivers them to the
inboxes you name. It exists to feed email-processing pipelines with test
traffic.

Settings come from phantommail.yaml, a .env file, PHANTOMMAIL_* environment
variables and flags, later sources winning.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./phantommail.yaml or ~/.config/phantommail/phantommail.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	bindFlag(rootCmd.PersistentFlags().Lookup("log-level"), "log.level")
	bindFlag(rootCmd.PersistentFlags().Lookup("log-format"), "log.format")
}

// loadConfig reads and validates configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(v, file)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
