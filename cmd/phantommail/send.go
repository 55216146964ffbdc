package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/phantommail/batch"
	"github.com/spetersoncode/phantommail/internal/app"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Generate and send a batch of fake emails",
	Long: `Send generates --count emails of --type and delivers each to every
address in --to. Any of the three left out is asked for interactively,
followed by a confirmation.

Types are the categories listed by "phantommail categories", or all_random
for a fresh random type per email. Failed emails are reported and the
batch carries on. Ctrl-C stops after the email in flight.`,
	Example: `  phantommail send
  phantommail send --type order --count 3 --to inbox@example.com
  phantommail send --type all_random --count 10 --to a@example.com,b@example.com --transport stdout`,
	RunE: runSend,
}

func init() {
	f := sendCmd.Flags()
	f.StringP("type", "t", "", "email type, or all_random")
	f.IntP("count", "n", 0, "number of emails to send")
	f.StringSlice("to", nil, "recipient addresses (comma-separated)")

	f.String("provider", "", "model provider: vertex, google, anthropic or openai")
	f.String("model", "", "model ID")
	f.Float64("temperature", 0, "sampling temperature")
	f.String("transport", "", "delivery transport: smtp, ses, brevo, blob or stdout")
	f.String("journal", "", "record runs in this SQLite file")
	f.Duration("delay", 0, "pause between emails")
	f.Uint64("seed", 0, "fix fake data and random choices")

	bindFlag(f.Lookup("provider"), "llm.provider")
	bindFlag(f.Lookup("model"), "llm.model")
	bindFlag(f.Lookup("temperature"), "llm.temperature")
	bindFlag(f.Lookup("transport"), "delivery.transport")
	bindFlag(f.Lookup("journal"), "journal.path")
	bindFlag(f.Lookup("delay"), "run.delay")
	bindFlag(f.Lookup("seed"), "run.seed")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nPhantomMail - Fake Email Generator")
	fmt.Fprintln(out)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	label, _ := cmd.Flags().GetString("type")
	count, _ := cmd.Flags().GetInt("count")
	to, _ := cmd.Flags().GetStringSlice("to")
	if count < 0 {
		return fmt.Errorf("--count must be positive, got %d", count)
	}
	var recipients []string
	if len(to) > 0 {
		if recipients, err = parseRecipients(strings.Join(to, ",")); err != nil {
			return err
		}
	}

	sel, err := newMenu(cmd.InOrStdin(), out).complete(label, count, recipients)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(out, "\nOperation cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.WithLogger(logger), app.WithOutput(out))
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.Run(ctx, sel)
	if sum != nil {
		batch.PrintSummary(out, sum)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\n\nOperation cancelled by user.")
		return nil
	}
	return err
}
