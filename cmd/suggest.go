package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewSuggestCommand creates a suggest command that uses the provided
// Suggester.
func NewSuggestCommand(suggester Suggester) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "suggest [command...]",
		Short: "Suggest the best-matching domain template for a command list",
		Long: `Suggest classifies an observed command list and prints the name of
the built-in template skeleton that best matches its shape. Commands are
taken from the arguments, or one per line from --file (use "-" for stdin).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			commands := args
			if file != "" {
				read, err := readCommandLines(file)
				if err != nil {
					return fmt.Errorf("suggest failed: %w", err)
				}
				commands = append(commands, read...)
			}
			if len(commands) == 0 {
				return fmt.Errorf("no commands given")
			}

			_, _ = fmt.Fprintln(os.Stdout, suggester.Suggest(commands))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read commands from a file, one per line")

	return cmd
}

func readCommandLines(path string) ([]string, error) {
	var in *os.File
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
