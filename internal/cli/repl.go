package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
)

var errQuit = errors.New("quit")

// errUnsaved is returned by commands that would discard in-memory edits.
var errUnsaved = errors.New("unsaved changes; run 'save' first or repeat with -f")

// executor is the surface the REPL drives. App implements it; tests use a
// stub.
type executor interface {
	prompt() string
	exec(ctx context.Context, name string, args []string) error
}

type command struct {
	usage    string
	help     string
	minArgs  int
	maxArgs  int
	unlocked bool
	run      func(ctx context.Context, args []string) error
}

// runREPL reads one command per line from r and dispatches it to e. Errors
// are reported on w and the loop continues. It returns on EOF, on "exit" or
// when ctx is done.
func runREPL(ctx context.Context, e executor, r *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprint(w, e.prompt())
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch xerr := e.exec(ctx, parts[0], parts[1:]); {
		case errors.Is(xerr, errQuit):
			fmt.Fprintln(w, "Bye!")
			return
		case xerr != nil:
			fmt.Fprintln(w, "error:", userMessage(xerr))
		}
	}
}

func (a *App) exec(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type 'help'", name)
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return fmt.Errorf("usage: %s %s", name, cmd.usage)
	}
	if cmd.unlocked && !a.sess.IsLoaded() {
		return common.ErrLocked
	}
	return cmd.run(ctx, args)
}

func (a *App) commandTable() map[string]command {
	t := map[string]command{
		"help":    {help: "show this list", run: a.help},
		"create":  {usage: "[-f] [path] [name]", help: "create a new vault", maxArgs: 3, run: a.create},
		"open":    {usage: "[-f] [path]", help: "open a vault", maxArgs: 2, run: a.open},
		"save":    {help: "write changes to the vault file", unlocked: true, run: a.save},
		"passwd":  {help: "change the master password", unlocked: true, run: a.passwd},
		"lock":    {usage: "[-f]", help: "forget keys and entries", maxArgs: 1, run: a.lock},
		"list":    {usage: "[group]", help: "show the tree or one group", maxArgs: 1, unlocked: true, run: a.list},
		"show":    {usage: "<entry> [-p]", help: "show an entry, -p reveals secrets", minArgs: 1, maxArgs: 2, unlocked: true, run: a.show},
		"add":     {usage: "[group]", help: "add an entry", maxArgs: 1, unlocked: true, run: a.add},
		"setpw":   {usage: "<entry>", help: "change an entry password", minArgs: 1, maxArgs: 1, unlocked: true, run: a.setPassword},
		"rm":      {usage: "<entry>", help: "remove an entry", minArgs: 1, maxArgs: 1, unlocked: true, run: a.remove},
		"mkgroup": {usage: "<name> [parent]", help: "add a group", minArgs: 1, maxArgs: 2, unlocked: true, run: a.mkgroup},
		"rmgroup": {usage: "<group>", help: "remove a group and its contents", minArgs: 1, maxArgs: 1, unlocked: true, run: a.rmgroup},
		"history": {usage: "<entry> [-p]", help: "show previous passwords", minArgs: 1, maxArgs: 2, unlocked: true, run: a.history},
		"backup":  {help: "store an encrypted copy of the saved vault", unlocked: true, run: a.backup},
		"backups": {usage: "[name]", help: "list stored copies", maxArgs: 1, run: a.listBackups},
		"restore": {usage: "<key> <path>", help: "write a stored copy to a new file", minArgs: 2, maxArgs: 2, run: a.restore},
		"recent":  {usage: "[path]", help: "list recently used vaults, or one vault's events", maxArgs: 1, run: a.recent},
		"forget":  {usage: "<path>", help: "drop a vault from the recent list", minArgs: 1, maxArgs: 1, run: a.forget},
		"agent":   {usage: "status|list|get|lock", help: "talk to a running vaultagent", minArgs: 1, maxArgs: 2, run: a.agentCmd},
		"exit":    {usage: "[-f]", help: "leave", maxArgs: 1, run: a.exit},
	}
	t["l"] = t["list"]
	t["quit"] = t["exit"]
	return t
}

func (a *App) help(context.Context, []string) error {
	names := make([]string, 0, len(a.commands))
	for n := range a.commands {
		if n == "l" || n == "quit" {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := a.commands[n]
		fmt.Fprintf(a.out, "  %-8s %-18s %s\n", n, c.usage, c.help)
	}
	return nil
}

func (a *App) exit(_ context.Context, args []string) error {
	if a.dirty && !hasFlag(args, "-f") {
		return errUnsaved
	}
	return errQuit
}

// hasFlag reports whether flag is among args.
func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

// positional returns args without flags.
func positional(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			out = append(out, a)
		}
	}
	return out
}

func kindOf(err error) string {
	return common.KindOf(err).String()
}

// userMessage turns an engine error into a line for the terminal.
func userMessage(err error) string {
	switch common.KindOf(err) {
	case common.KindWrongPassword:
		return "wrong password"
	case common.KindIntegrityFailure:
		return "the vault file is damaged or has been tampered with"
	case common.KindInvalidHeader:
		return "not a vault file"
	case common.KindUnsupportedVersion:
		return "unsupported vault format version"
	case common.KindParseError:
		return "the vault contents could not be read"
	case common.KindLocked:
		return "no vault is open, use 'open' or 'create'"
	default:
		return err.Error()
	}
}
