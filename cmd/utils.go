package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ddownloader/ddclient/internal/config"
	"github.com/ddownloader/ddclient/internal/core"
)

type settingsKey struct{}

func withSettings(ctx context.Context, s *config.Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func withLogger(ctx context.Context, logger *log.Logger) context.Context {
	return log.WithContext(ctx, logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// settingsFrom returns the settings loaded by setup, or defaults.
func settingsFrom(cmd *cobra.Command) *config.Settings {
	if s, ok := commandContext(cmd).Value(settingsKey{}).(*config.Settings); ok && s != nil {
		return s
	}
	return config.DefaultSettings()
}

func resolveConfigPath() string {
	if path := strings.TrimSpace(globalConfigPath); path != "" {
		return path
	}
	return config.GetSettingsPath()
}

// newService builds the backend client from the command's settings.
func newService(cmd *cobra.Command) *core.RemoteTaskService {
	s := settingsFrom(cmd)
	return core.NewRemoteTaskService(s.Server.BaseURL, s.Server.RequestTimeout, log.FromContext(commandContext(cmd)))
}

// readURLsFromFile reads URLs from a file, one per line.
// Blank lines and lines starting with # are skipped.
func readURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for long URLs (default is 64KB, increase to 1MB)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return urls, nil
}
