package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/plugswitch/internal/app"
	"github.com/dshills/plugswitch/internal/config"
	"github.com/dshills/plugswitch/internal/logging"
	"github.com/dshills/plugswitch/internal/notify"
	"github.com/dshills/plugswitch/internal/vfs"
)

// cli holds the flag values and the objects built from them.
type cli struct {
	configPath       string
	root             string
	statePath        string
	logLevel         string
	jsonLog          bool
	noColor          bool
	overwriteCorrupt bool

	fs        vfs.VFS
	lookupEnv config.LookupFunc

	opts config.Options
	log  *logrus.Logger
	app  *app.App
}

func newCLI() *cli {
	return &cli{
		fs:        vfs.NewOSFS(),
		lookupEnv: os.LookupEnv,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "plugswitch",
		Short: "Enable and disable After Effects plugins",
		Long: `plugswitch finds the plugin folders of every installed After Effects version,
keeps a record of which plugins are enabled, and disables a plugin by renaming
its file to carry the .removed extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&c.configPath, "config", "c", "", "configuration file (.toml, .yaml or .json)")
	f.StringVar(&c.root, "root", "", "installation root to search")
	f.StringVar(&c.statePath, "state", "", "state file location")
	f.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.BoolVar(&c.jsonLog, "json-log", false, "log as JSON")
	f.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	f.BoolVar(&c.overwriteCorrupt, "overwrite-corrupt-state", false, "save over a state file that can not be parsed")

	root.AddCommand(
		newScanCmd(c),
		newListCmd(c),
		newCategoriesCmd(c),
		newDisableCmd(c),
		newEnableCmd(c),
		newWatchCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup resolves configuration in order defaults, file, environment, flags,
// then builds the logger and the App.
func (c *cli) setup(cmd *cobra.Command) error {
	if c.noColor {
		color.NoColor = true
	}

	if cmd.Flags().Changed("config") && !c.fs.IsRegular(c.configPath) {
		return fmt.Errorf("config file %s not found", c.configPath)
	}
	opts, err := config.Load(c.fs, c.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&opts, c.lookupEnv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		opts.Root = c.root
	}
	if flags.Changed("state") {
		opts.StatePath = c.statePath
	}
	if flags.Changed("log-level") {
		if !logging.ValidLevel(c.logLevel) {
			return fmt.Errorf("invalid log level %q", c.logLevel)
		}
		opts.LogLevel = c.logLevel
	}
	if flags.Changed("json-log") {
		opts.LogJSON = c.jsonLog
	}

	c.log = logging.New(logging.Config{
		Level:   opts.LogLevel,
		Output:  cmd.ErrOrStderr(),
		JSON:    opts.LogJSON,
		NoColor: c.noColor,
	})
	c.opts = opts

	a, err := app.New(opts, c.fs, notify.NewLogrus(c.log, "plugswitch"),
		app.WithOverwriteUnreadableState(c.overwriteCorrupt))
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// quiet reports whether info-level log lines are suppressed, which is when
// a progress spinner can run without interleaving with log output.
func (c *cli) quiet() bool {
	return logging.ParseLevel(c.opts.LogLevel) < logrus.InfoLevel
}

// Status printers shared by the commands.
var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
)

func printOK(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, "✔ "+format+"\n", args...)
}

func printWarn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "! "+format+"\n", args...)
}

func printFail(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, "✘ "+format+"\n", args...)
}
