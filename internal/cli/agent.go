package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/agent"
)

const agentTimeout = 3 * time.Second

// agentCmd queries a running vaultagent over its socket.
func (a *App) agentCmd(ctx context.Context, args []string) error {
	c, err := agent.Dial(a.config.AgentSocket)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, agentTimeout)
	defer cancel()

	switch args[0] {
	case "status":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if !st.Loaded {
			fmt.Fprintln(a.out, "Agent is running, vault locked")
			return nil
		}
		fmt.Fprintf(a.out, "Agent holds %q (%s): %d entries, %d groups\n", st.Name, st.Fingerprint, st.Entries, st.Groups)
	case "list":
		group := agent.AllEntries
		if len(args) > 1 {
			group = args[1]
		}
		entries, err := c.ListEntries(ctx, group)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(a.out, "  %s (%s)  [%s]\n", e.Title, e.Username, e.UUID)
		}
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: agent get <uuid>")
		}
		e, err := c.GetEntry(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, e.Password)
	case "lock":
		if err := c.Lock(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Agent locked")
	default:
		return fmt.Errorf("usage: agent status|list [group]|get <uuid>|lock")
	}
	return nil
}
