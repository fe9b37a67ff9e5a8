package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ddownloader/ddclient/internal/types"
	"github.com/ddownloader/ddclient/internal/utils"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"l"},
	Short:   "List the tasks held by the backend",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		svc := newService(cmd)
		var (
			result *types.TaskPage
			err    error
		)
		if cmd.Flags().Changed("page") || cmd.Flags().Changed("page-size") {
			if !cmd.Flags().Changed("page-size") {
				pageSize = settingsFrom(cmd).Server.PageSize
			}
			result, err = svc.FetchTasksPage(cmd.Context(), page, pageSize)
		} else {
			result, err = svc.FetchTasks(cmd.Context())
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printTaskTable(out, result)
		return nil
	},
}

func printTaskTable(w io.Writer, page *types.TaskPage) {
	if len(page.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PROGRESS", "TARGET")
	for _, task := range page.Tasks {
		t.Row(
			strconv.FormatInt(task.ID, 10),
			task.Status.Label(),
			utils.FormatProgress(task.DownloadedSize, task.TotalSize),
			task.TargetPath,
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Page %d: %d of %d tasks\n", page.Page, len(page.Tasks), page.TotalCount)
}

func init() {
	lsCmd.Flags().Bool("json", false, "Print the raw listing as JSON")
	lsCmd.Flags().Int("page", 1, "Page to fetch")
	lsCmd.Flags().Int("page-size", 30, "Tasks per page, overrides server.page_size")
	rootCmd.AddCommand(lsCmd)
}
