// Package cli is the small command-tree framework both binaries are built on.
//
// A tree is plain data: each Command names itself, optionally builds a
// pflag.FlagSet, and either runs or dispatches to a child. Unknown commands
// and flags are answered with the nearest known name.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" hint.
const maxSuggestDistance = 3

// Command is one node of a command tree.
type Command struct {
	// Name is the word typed to reach this command ("towers", "approve").
	Name string

	// Summary is the one-line text listed under the parent's Commands.
	Summary string

	// Usage replaces the generated "name [flags]" line in help, for
	// commands that take positional arguments.
	Usage string

	// Flags builds the command's flag set. It runs once per execution, so
	// closures that bind flag variables start every run from zero values.
	// Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	// Subcommands are matched against the first positional argument.
	Subcommands []*Command

	// Run gets the positional arguments left once flags are parsed. A
	// command with both Run and Subcommands runs when no child matches.
	Run func(ctx context.Context, args []string) error

	// Output receives help text. Only the root's value is consulted;
	// stderr when nil.
	Output io.Writer

	parent *Command
}

// Execute resolves args against the tree and runs the command they name.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.output())
		return nil
	}

	if sub, rest, err := c.child(args); err != nil || sub != nil {
		if err != nil {
			return err
		}
		return sub.Execute(ctx, rest)
	}

	if c.Run == nil {
		c.PrintHelp(c.output())
		if len(c.Subcommands) > 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("no action defined for %q", c.fullName())
	}

	positional, err := c.parseFlags(args)
	if err != nil {
		return err
	}
	return c.Run(ctx, positional)
}

// child returns the subcommand args[0] names. With no match it is an error
// unless c can run on its own.
func (c *Command) child(args []string) (*Command, []string, error) {
	if len(c.Subcommands) == 0 || len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil, args, nil
	}
	name := args[0]
	names := make([]string, 0, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub, args[1:], nil
		}
		names = append(names, sub.Name)
	}
	if c.Run != nil {
		return nil, args, nil
	}
	if hint := closest(name, names); hint != "" {
		return nil, nil, c.usageError(fmt.Sprintf("unknown command %q (did you mean %q?)", name, hint))
	}
	return nil, nil, c.usageError(fmt.Sprintf("unknown command %q", name))
}

func (c *Command) parseFlags(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if strings.Contains(err.Error(), "unknown flag") {
			if hint := suggestFlag(args, c.Flags()); hint != "" {
				return nil, c.usageError(fmt.Sprintf("%s (did you mean %s?)", err, hint))
			}
		}
		return nil, c.usageError(err.Error())
	}
	return flagSet.Args(), nil
}

func (c *Command) usageError(msg string) error {
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", msg, c.fullName())
}

// PrintHelp writes the summary, usage line, subcommand listing and flag
// defaults of c to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	usage := c.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(c.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var defaults strings.Builder
		flagSet := c.Flags()
		flagSet.SetOutput(&defaults)
		flagSet.PrintDefaults()
		if defaults.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", defaults.String())
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func (c *Command) root() *Command {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func (c *Command) output() io.Writer {
	if out := c.root().Output; out != nil {
		return out
	}
	return os.Stderr
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}

// suggestFlag finds the first flag in args the set does not define and
// returns the nearest defined one, dashes included.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var known []string
	flagSet.VisitAll(func(f *pflag.Flag) { known = append(known, f.Name) })

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		if hint := closest(name, known); hint != "" {
			return "--" + hint
		}
	}
	return ""
}

// closest returns the candidate nearest to name, or "" when none is within
// maxSuggestDistance.
func closest(name string, candidates []string) string {
	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if d := levenshtein(name, candidate); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
