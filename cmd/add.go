package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

var addCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Queue one or more downloads on the backend",
	Long: `add fetches the metadata of each URL and queues a task saved under the
proposed file name. --name overrides the name when a single URL is given.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		batchFile, _ := cmd.Flags().GetString("batch")

		urls := append([]string{}, args...)
		if batchFile != "" {
			fileURLs, err := readURLsFromFile(batchFile)
			if err != nil {
				return fmt.Errorf("error reading batch file: %w", err)
			}
			urls = append(urls, fileURLs...)
		}
		if len(urls) == 0 {
			return errors.New("no URLs given")
		}
		name = strings.TrimSpace(name)
		if name != "" && len(urls) > 1 {
			return errors.New("--name can only be used with a single URL")
		}

		svc := newService(cmd)
		logger := log.FromContext(cmd.Context())
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

		failed := 0
		for _, u := range urls {
			task, err := queueURL(cmd, svc, u, name)
			if err != nil {
				failed++
				logger.Debug("queue failed", "url", u, "err", err)
				fmt.Fprintf(errOut, "Error: %s: %v\n", u, err)
				continue
			}
			fmt.Fprintf(out, "Queued %s (task %d)\n", task.TargetPath, task.ID)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d tasks could not be queued", failed, len(urls))
		}
		return nil
	},
}

// queueURL mirrors the add-task wizard: metadata first, then the task under
// the proposed (or given) name.
func queueURL(cmd *cobra.Command, svc core.TaskService, rawURL, name string) (*types.Task, error) {
	rawURL = strings.TrimSpace(rawURL)
	if name == "" {
		meta, err := svc.GetURLMetadata(cmd.Context(), rawURL)
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(meta.ProposedFileName)
		if name == "" {
			name = utils.FilenameFromURL(rawURL)
		}
	}
	return svc.QueueTask(cmd.Context(), types.TaskRequest{URL: rawURL, RelativeTargetPath: name})
}

func init() {
	addCmd.Flags().StringP("name", "n", "", "Target path relative to the backend download directory")
	addCmd.Flags().StringP("batch", "b", "", "File containing URLs to queue (one per line)")
	rootCmd.AddCommand(addCmd)
}
