package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/memonest/internal/nest"
)

const shellPrompt = "memonest> "

// errExitShell is returned by the shell's exit command to end the loop.
var errExitShell = errors.New("exit shell")

var errUnterminatedQuote = errors.New("unterminated quote")

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run an interactive memo console",
		Long:  "Read memo commands from standard input, one per line, against a single session.\nType help for the command list and exit to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd)
		},
	}
}

// newShellRoot builds the command tree for one shell line. Every line gets
// a fresh tree so flag values do not leak between lines.
func newShellRoot(a *app, session sessionFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "",
		Short:         "MemoNest interactive console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newMemoCmds(a, session)...)
	root.AddCommand(&cobra.Command{
		Use:     "exit",
		Aliases: []string{"quit"},
		Short:   "Exit the console",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errExitShell
		},
	})
	return root
}

func (a *app) runShell(cmd *cobra.Command) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	fixed := func(context.Context) (*nest.Session, error) { return s, nil }

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		words, err := splitLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		line := newShellRoot(a, fixed)
		line.SetArgs(words)
		line.SetIn(strings.NewReader(""))
		line.SetOut(out)
		line.SetErr(out)

		err = line.ExecuteContext(cmd.Context())
		if errors.Is(err, errExitShell) {
			fmt.Fprintln(out, "Exiting the application.")
			return nil
		}
		if err != nil {
			var ee *exitError
			if errors.As(err, &ee) && ee.err == nil {
				// The error was already written by the console sink.
				continue
			}
			fmt.Fprintln(out, "Error:", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return sysError(fmt.Errorf("read input: %w", err))
	}
	return nil
}

// splitLine splits a shell line into words. Single or double quotes group
// words containing spaces; a backslash escapes the next character outside
// single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}
