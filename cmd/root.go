package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dbdrill/internal/db"
	"github.com/oakwood-commons/dbdrill/internal/mnemonic"
	"github.com/oakwood-commons/dbdrill/internal/nav"
	"github.com/oakwood-commons/dbdrill/internal/ui"
	"github.com/oakwood-commons/dbdrill/pkg/logger"
	"github.com/oakwood-commons/dbdrill/pkg/settings"
)

var (
	dsn          string
	debug        bool
	logFile      string
	noColor      bool
	mnemonics    string
	queryTimeout time.Duration
)

var (
	rootCtx = context.Background()

	// logSink is the open --log-file, closed after the command finishes.
	logSink io.Closer

	// errNoTerminal is returned when the browser cannot reach a terminal.
	errNoTerminal = errors.New("dbdrill needs an interactive terminal; use 'dbdrill check' to validate a configuration non-interactively")
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " <config-file>",
	Short: "Browse a relational database through configured searches and links",
	Long: `dbdrill opens a full-screen browser over a SQL database. The config file
declares entities, their searches (parameterized SELECT statements) and the
links that carry values from a result row into another entity's search.

Pick an entity, pick a search, fill in its parameters and drill down from any
row by following a link. Esc goes back one step, q quits.`,
	Example:       "\n  dbdrill examples/sample/resources.toml --dsn postgres://localhost/blog\n  DBDRILL_DSN=sqlite://blog.db dbdrill examples/sample/resources.sqlite.toml\n  dbdrill check examples/sample/resources.toml\n",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		logger.Sync()
		if logSink != nil {
			_ = logSink.Close()
			logSink = nil
		}
	},
	RunE: func(_ *cobra.Command, args []string) error {
		return runBrowse(args[0])
	},
}

// setupLogging builds the process logger. The browser owns the terminal, so
// without --log-file it logs nowhere; other commands log to stderr.
func setupLogging(cmd *cobra.Command, _ []string) error {
	var level int8
	if debug {
		level = -1
	}

	out := cmd.ErrOrStderr()
	if cmd == rootCmd {
		out = io.Discard
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logSink = f
		out = f
	}

	lgr := logger.Get(level, logger.WithOutput(out))
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	run := settings.NewCliParams()
	run.MinLogLevel = level
	run.LogFile = logFile
	run.NoColor = noColor
	run.Mnemonics = mnemonics
	run.QueryTimeout = queryTimeout

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rootCtx = logger.WithLogger(settings.IntoContext(ctx, run), lgr)
	return nil
}

func runBrowse(configPath string) error {
	run := settings.RunFromContext(rootCtx)
	lgr := logger.FromContext(rootCtx)

	policy, err := mnemonic.ParsePolicy(run.Mnemonics)
	if err != nil {
		return err
	}

	model, err := loadModel(configPath)
	if err != nil {
		return err
	}
	run.ConfigPath = configPath

	run.DSN, err = resolveDSN(dsn, os.LookupEnv)
	if err != nil {
		return err
	}

	progOpts, cleanup, err := getProgramOptions()
	if err != nil {
		return err
	}
	defer cleanup()

	conn, err := db.Open(rootCtx, run.DSN, db.WithTimeout(run.QueryTimeout))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close()
	lgr.Info("starting browser",
		logger.ConfigKey, configPath,
		logger.DialectKey, conn.Dialect().String(),
		"entities", len(model.Entities()))

	machine := nav.New(model,
		nav.WithPolicy(policy),
		nav.WithLogger(*lgr),
		nav.WithClipboard(ui.CopyToClipboard))

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()
	return ui.Run(ctx, machine, conn, ui.Options{
		NoColor:        run.NoColor || os.Getenv("NO_COLOR") != "",
		ProgramOptions: progOpts,
	})
}

func init() { //nolint:gochecknoinits
	// Assigned here rather than in the literal: setupLogging refers to rootCmd.
	rootCmd.PersistentPreRunE = setupLogging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append JSON logs to this file")
	rootCmd.Flags().StringVarP(&dsn, "dsn", "d", "", "database connection string (default $DBDRILL_DSN, then $DATABASE_URL)")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().StringVar(&mnemonics, "mnemonics", mnemonic.Greedy.String(), "shortcut assignment: greedy|word-start")
	rootCmd.Flags().DurationVar(&queryTimeout, "timeout", settings.DefaultQueryTimeout, "per-query timeout (0 disables)")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
