package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/snare/internal/sessions"
)

const quitCommand = "/quit"

type converseFlags struct {
	message    string
	transcript string
}

func newConverseCmd(root *rootFlags) *cobra.Command {
	flags := &converseFlags{}

	cmd := &cobra.Command{
		Use:   "converse",
		Short: "Run an interactive honeypot conversation",
		Long: "Converse opens a session with the first message (or --message), then\n" +
			"reads one reply per line until the session terminates or " + quitCommand + " is entered.\n" +
			"Sessions are held in memory for the life of the command.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}

			sys := sessions.New(
				sessions.NewMemoryStore(),
				c.pipeline,
				nil,
				nil,
				c.cfg.Sessions,
				c.logger,
				c.cfg.API.Pagination,
			)

			return converse(cmd, sys, c, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.message, "message", "m", "", "Opening message (otherwise read from the first input line)")
	f.StringVar(&flags.transcript, "transcript", "", "Write the session transcript JSON to this file on exit")

	return cmd
}

func converse(cmd *cobra.Command, sys sessions.System, c *console, flags *converseFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	opening := strings.TrimSpace(flags.message)
	if opening == "" {
		line, ok := prompt(out, in)
		if !ok || line == quitCommand {
			return nil
		}
		opening = line
	}

	ex, err := sys.Open(ctx, opening)
	if err != nil {
		return err
	}
	show(out, ex)

	for !ex.Terminated {
		line, ok := prompt(out, in)
		if !ok || line == quitCommand {
			break
		}
		if line == "" {
			continue
		}

		ex, err = sys.Reply(ctx, ex.SessionID, line)
		if err != nil {
			return err
		}
		show(out, ex)
	}

	if err := in.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	report := c.ledger.Snapshot().Report()
	fmt.Fprintf(out, "\njudgments: %d  mean attractiveness: %.2f  mean feasibility: %.2f\n",
		report.Count, report.MeanAttractiveness, report.MeanFeasibility)

	if flags.transcript != "" {
		return writeTranscript(cmd, sys, ex, flags.transcript)
	}
	return nil
}

func prompt(out io.Writer, in *bufio.Scanner) (string, bool) {
	fmt.Fprint(out, "you> ")
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func show(out io.Writer, ex *sessions.Exchange) {
	if ex.Response != "" {
		fmt.Fprintf(out, "snare> %s\n", ex.Response)
	}
	if ex.Judgment != nil {
		fmt.Fprintf(out, "  [%s -> %s]\n", ex.Judgment.Verdict, ex.Action)
	}
	if ex.Terminated {
		fmt.Fprintf(out, "-- session %s ended: %s\n", ex.SessionID, ex.Reason)
	}
}

func writeTranscript(cmd *cobra.Command, sys sessions.System, ex *sessions.Exchange, path string) error {
	cf, err := sys.Find(cmd.Context(), ex.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sessions.NewTranscript(cf, time.Now().UTC()), "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "transcript written to %s\n", path)
	return nil
}
