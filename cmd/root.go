package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ddownloader/ddclient/internal/config"
	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/tui"
	"github.com/ddownloader/ddclient/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var globalConfigPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ddclient",
	Short: "Terminal client for the ddownloader service",
	Long: `ddclient shows the download tasks of a ddownloader backend in a terminal
dashboard and queues new ones after previewing their metadata.`,
	Version:           Version,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runTUI,
}

// setup loads the effective settings and a stderr logger for every command.
func setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return err
	}
	logger := utils.SetupLogger(cmd.ErrOrStderr(), settings.General.LogLevel)
	cmd.SetContext(withSettings(withLogger(commandContext(cmd), logger), settings))
	return nil
}

// runTUI starts the dashboard. The terminal belongs to the UI, so logs go to
// the log file instead of stderr.
func runTUI(cmd *cobra.Command, _ []string) error {
	settings := settingsFrom(cmd)

	logFile, err := utils.OpenLogFile(config.GetLogPath())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := utils.SetupLogger(logFile, settings.General.LogLevel)
	logger.Info("starting dashboard", "version", Version, "base_url", settings.Server.BaseURL)

	svc := core.NewRemoteTaskService(settings.Server.BaseURL, settings.Server.RequestTimeout, logger)
	tui.ApplyTheme(settings.General.Theme)

	m := tui.NewRootModel(cmd.Context(), svc, tui.Options{
		Settings:  settings,
		Preview:   preview.NewFetcher(settings.Server.RequestTimeout, logger),
		Clipboard: clipboard.ReadAll,
		Logger:    logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	d := config.DefaultSettings()
	rootCmd.PersistentFlags().String("base-url", d.Server.BaseURL, "Address of the ddownloader backend")
	rootCmd.PersistentFlags().Duration("timeout", d.Server.RequestTimeout, "Timeout for each backend request")
	rootCmd.PersistentFlags().String("log-level", d.General.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", "", "Settings file (default: "+config.GetSettingsPath()+")")
	rootCmd.SetVersionTemplate("ddclient version {{.Version}}\n")
}
