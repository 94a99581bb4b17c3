package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askthatman/dividend/internal/buildinfo"
	"github.com/askthatman/dividend/internal/config"
	"github.com/askthatman/dividend/internal/importer"
	"github.com/askthatman/dividend/internal/session"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgPath string
	envFile string

	cfg      *config.Config
	logger   *slog.Logger
	registry *importer.Registry
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "dividend",
		Short:   "Calculate dividend income from bank statements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with environment overrides")

	rootCmd.AddCommand(newCalcCommand(a))
	rootCmd.AddCommand(newAnalyseCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, a.envFile); err != nil {
		return err
	}
	logger, err := cfg.Log.Logger(logOut)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	layouts, err := cfg.Layouts()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = importer.DefaultRegistry(layouts)
	return nil
}

// bank returns the --bank flag, or the configured default.
func (a *app) bank(cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("bank") || a.cfg == nil {
		return flag
	}
	return a.cfg.Banks.Default
}

// userError shows the user-facing message while keeping the cause for errors.Is.
type userError struct{ err error }

func (e userError) Error() string { return session.UserMessage(e.err) }
func (e userError) Unwrap() error { return e.err }
