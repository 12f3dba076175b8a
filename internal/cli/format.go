package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

const mask = "********"

func secret(s string, reveal bool) string {
	if reveal || s == "" {
		return s
	}
	return mask
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// printTree writes the groups under parent depth-first, each followed by its
// entries. seen stops on parent cycles.
func printTree(w io.Writer, db *models.Database, parent string, depth int, seen map[string]bool) {
	if depth == 1 {
		for _, e := range db.EntriesIn(parent) {
			printEntryLine(w, depth, &e)
		}
	}
	for _, g := range db.ChildGroups(parent) {
		if seen[g.UUID] {
			continue
		}
		seen[g.UUID] = true
		fmt.Fprintf(w, "%s%s/  [%s]\n", indent(depth), g.Name, g.UUID)
		for _, e := range db.EntriesIn(g.UUID) {
			printEntryLine(w, depth+1, &e)
		}
		printTree(w, db, g.UUID, depth+1, seen)
	}
}

func printEntryLine(w io.Writer, depth int, e *models.Entry) {
	line := indent(depth) + e.Title
	if e.Username != "" {
		line += " (" + e.Username + ")"
	}
	fmt.Fprintf(w, "%s  [%s]\n", line, e.UUID)
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func printEntry(w io.Writer, db *models.Database, e *models.Entry, reveal bool) {
	group := "/"
	if g, ok := db.Group(e.GroupUUID); ok {
		group = g.Name
	}
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "  %-10s %s\n", k+":", v)
		}
	}

	row("Title", e.Title)
	row("UUID", e.UUID)
	row("Group", group)
	row("Username", e.Username)
	row("Password", secret(e.Password, reveal))
	row("URL", e.URL)
	row("Tags", strings.Join(e.Tags, ", "))
	for _, cf := range e.CustomFields {
		row(cf.Key, secret(cf.Value, reveal || !cf.Protected))
	}
	if e.Notes != "" {
		fmt.Fprintln(w, "  Notes:")
		for _, l := range strings.Split(e.Notes, "\n") {
			fmt.Fprintln(w, "    "+l)
		}
	}
	row("Created", formatTime(e.Times.CreationTime))
	row("Modified", formatTime(e.Times.ModificationTime))
	if e.Times.Expires {
		row("Expires", formatTime(e.Times.ExpiryTime))
	}
	if n := len(e.History); n > 0 {
		row("History", fmt.Sprintf("%d previous passwords", n))
	}
}
