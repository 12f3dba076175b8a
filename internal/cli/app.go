package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/vaultkeeper/internal/backup"
	"github.com/dmitrijs2005/vaultkeeper/internal/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/journal"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/session"
)

// App is one interactive shell. It is not safe for concurrent use.
type App struct {
	config  *config.Config
	sess    *session.Session
	journal *journal.Journal
	backups *backup.Service
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer

	path     string
	dirty    bool
	commands map[string]command
}

type Option func(*App)

func WithSession(s *session.Session) Option {
	return func(a *App) { a.sess = s }
}

// WithJournal enables the recent-vault journal.
func WithJournal(j *journal.Journal) Option {
	return func(a *App) { a.journal = j }
}

// WithBackups enables the backup commands.
func WithBackups(b *backup.Service) Option {
	return func(a *App) { a.backups = b }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(r)
		a.out = w
	}
}

func NewApp(c *config.Config, opts ...Option) *App {
	a := &App{
		config: c,
		logger: logging.NewNop(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		path:   c.VaultPath,
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("module", "cli")
	if a.sess == nil {
		a.sess = session.New(session.WithLogger(a.logger))
	}
	a.commands = a.commandTable()
	return a
}

// Setup builds an App from configuration, opening the journal and the
// backup store. A journal that cannot be opened is logged and skipped. The
// returned func releases what Setup opened.
func Setup(ctx context.Context, c *config.Config, l logging.Logger) (*App, func(), error) {
	opts := []Option{WithLogger(l), WithSession(session.New(session.WithLogger(l)))}
	cleanup := func() {}

	j, err := journal.Open(ctx, c.JournalPath, l)
	if err != nil {
		l.Warn(ctx, "journal disabled", "error", err)
	} else {
		opts = append(opts, WithJournal(j))
		cleanup = func() { _ = j.Close() }
	}

	store, err := newBackupStore(ctx, c)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to init backup store: %w", err)
	}
	opts = append(opts, WithBackups(backup.NewService(store, l)))

	return NewApp(c, opts...), cleanup, nil
}

func newBackupStore(ctx context.Context, c *config.Config) (backup.Store, error) {
	if c.S3Enabled() {
		return backup.NewS3Store(ctx, backup.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
	}
	return backup.NewDirStore(c.BackupDir)
}

// Run starts the REPL and blocks until it ends. The session is locked on
// return.
func (a *App) Run(ctx context.Context) {
	defer a.sess.Lock()
	fmt.Fprintln(a.out, "vaultctl (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) prompt() string {
	if !a.sess.IsLoaded() {
		return "vault> "
	}
	name := ""
	if db := a.sess.Cached(); db != nil {
		name = db.Meta.Name
	}
	if a.dirty {
		name += "*"
	}
	return fmt.Sprintf("vault:%s> ", name)
}

// record writes a journal event for the vault at path. The session's name and
// fingerprint are attached when path is the open vault. Journal failures are
// logged by the journal and otherwise ignored.
func (a *App) record(ctx context.Context, op, path string, opErr error) {
	if a.journal == nil || path == "" {
		return
	}
	ev := journal.Event{VaultPath: path, Op: op, Outcome: kindOf(opErr)}
	if opErr == nil && path == a.path {
		if db := a.sess.Cached(); db != nil {
			ev.VaultName = db.Meta.Name
		}
		if h, ok := a.sess.Header(); ok {
			ev.Fingerprint = h.Fingerprint()
		}
	}
	_ = a.journal.Record(ctx, ev)
}
