package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/snare/internal/casefile"
)

type classifyResult struct {
	Message        string                   `json:"message"`
	Classification *casefile.Classification `json:"classification,omitempty"`
	Failed         bool                     `json:"failed,omitempty"`
	Failures       []casefile.Failure       `json:"failures,omitempty"`
}

func newClassifyCmd(root *rootFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "classify [message...]",
		Short: "Classify one or more messages and print the result as JSON",
		Long: "Classify sends each message through the classification stage only.\n" +
			"A single message prints its classification object; several messages\n" +
			"(or --file) are classified concurrently and print an array in input order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := gatherMessages(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				return fmt.Errorf("no messages to classify")
			}

			c, err := newConsole(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}

			cases, err := c.pipeline.ClassifyBatch(cmd.Context(), messages)
			if err != nil {
				return err
			}

			results := make([]classifyResult, len(cases))
			for i, cf := range cases {
				results[i] = classifyResult{
					Message:        cf.OriginalMessage,
					Classification: cf.Classification,
					Failed:         cf.Terminated(),
					Failures:       cf.Failures,
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if len(args) == 1 && file == "" {
				if results[0].Failed {
					enc.Encode(results[0])
					return fmt.Errorf("classification failed")
				}
				return enc.Encode(results[0].Classification)
			}
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read newline-separated messages from a file (- for stdin)")

	return cmd
}

func gatherMessages(stdin io.Reader, file string, args []string) ([]string, error) {
	messages := make([]string, 0, len(args))
	for _, a := range args {
		if s := strings.TrimSpace(a); s != "" {
			messages = append(messages, s)
		}
	}

	if file == "" {
		return messages, nil
	}

	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open messages: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			messages = append(messages, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return messages, nil
}
