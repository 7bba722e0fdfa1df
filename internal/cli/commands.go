package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rackinv/internal/inventory"
	rlog "rackinv/internal/log"
	"rackinv/internal/shared"
)

type app struct {
	in  io.Reader
	out io.Writer

	configPath string
	storePath  string
	logLevel   string

	cfg   *shared.Config
	store *inventory.Store
	ui    *UI
	log   *slog.Logger
}

// NewRootCommand builds the rackinv command tree. Without a subcommand it
// starts the interactive shell on in/out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "rackinv",
		Short:         "Track physical servers, their serial numbers and rack locations",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rlog.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewShell(a.store, a.ui, a.in, a.log).Run()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", os.Getenv(shared.EnvConfig), "path to YAML config file")
	pf.StringVar(&a.storePath, "store", "", "path to the inventory JSON file (overrides config)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		a.addCommand(),
		a.listCommand(),
		a.searchCommand(),
		a.deleteCommand(),
		a.exportCommand(),
		a.checkCommand(),
		a.configCommand(),
	)
	return root
}

// Execute runs the command tree with args and always closes the log sink,
// which cobra's post-run hooks skip when a command fails.
func Execute(in io.Reader, out io.Writer, args []string) (err error) {
	defer func() {
		if cerr := rlog.Close(); err == nil {
			err = cerr
		}
	}()
	root := NewRootCommand(in, out)
	root.SetArgs(args)
	if err = root.Execute(); err != nil {
		rlog.L().Error("command failed", slog.Any("err", err), slog.Any("args", args))
	}
	return err
}

func (a *app) setup() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	var err error
	a.store, err = inventory.Open(a.cfg.StorePath,
		inventory.WithExportDir(a.cfg.ExportDir),
		inventory.WithLogger(a.log.With(slog.String("component", "inventory"))),
	)
	return err
}

// loadConfig resolves settings and starts logging without touching the store.
func (a *app) loadConfig() error {
	cfg, err := shared.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.storePath != "" {
		cfg.StorePath = a.storePath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	opts := cfg.LogOptions()
	opts.Writer = os.Stderr
	rlog.Init(opts)
	a.log = rlog.L().With(slog.String("session", uuid.NewString()))

	a.ui = NewUI(a.out, cfg.Color)
	return nil
}

func (a *app) addCommand() *cobra.Command {
	var srv inventory.Server
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a server to the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv = srv.Normalize()
			if err := srv.Validate(); err != nil {
				return err
			}
			if err := a.store.Add(srv); err != nil {
				return err
			}
			a.ui.Success("Server added successfully!")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&srv.ProductName, "product", "", "product name, e.g. \"Dell R740\"")
	f.StringVar(&srv.SerialNumber, "serial", "", "serial number, e.g. SN123456")
	f.StringVar(&srv.RackLocation, "rack", "", "rack location, e.g. Rack-A1")
	f.StringVar(&srv.Username, "user", "", "assigned username")
	for _, name := range []string{"product", "serial", "rack", "user"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := a.store.Load()
			if err != nil {
				return err
			}
			if len(servers) == 0 {
				a.ui.Warn("No servers found in inventory.")
				return nil
			}
			a.ui.Servers("Server Inventory", servers)
			return nil
		},
	}
}

func (a *app) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find servers where any field contains term (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.TrimSpace(args[0])
			if term == "" {
				return fmt.Errorf("search term cannot be empty")
			}
			servers, err := a.store.Search(term)
			if err != nil {
				return err
			}
			if len(servers) == 0 {
				a.ui.Warn("No matching servers found.")
				return nil
			}
			a.ui.Servers(fmt.Sprintf("Search Results for '%s'", strings.ToLower(term)), servers)
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <serial>",
		Short: "Delete the server with this serial number (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Delete(strings.TrimSpace(args[0])); err != nil {
				return err
			}
			a.ui.Success("Server deleted successfully!")
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the inventory to CSV or SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			var err error
			switch strings.ToLower(format) {
			case "csv":
				path, err = a.store.ExportCSV(outPath)
			case "sqlite", "db":
				path, err = a.store.ExportSQLite(outPath)
			default:
				return fmt.Errorf("unknown export format %q (want csv or sqlite)", format)
			}
			if err != nil {
				return err
			}
			a.ui.Success("Server inventory exported successfully!")
			a.ui.Info("Absolute file path:", path+sizeSuffix(path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default server_inventory_<timestamp>.<ext>)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or sqlite")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.store.Check()
			if err != nil {
				return err
			}
			printReport(a.ui, a.store.Path(), rep)
			if !rep.OK() {
				return fmt.Errorf("%d problem(s) found", len(rep.Problems))
			}
			return nil
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the rackinv config file",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective settings to a YAML config file",
		Long: "Write the effective settings (defaults, environment and flags) to path.\n" +
			"Without a path it uses --config, then " + shared.DefaultConfigPath + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if strings.TrimSpace(path) == "" {
				path = shared.DefaultConfigPath
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
			}
			if err := shared.SaveConfig(path, a.cfg); err != nil {
				return fmt.Errorf("write config %s: %w", path, err)
			}
			a.log.Info("config written", slog.String("file", path))
			a.ui.Success("Config written to %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
