package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ddownloader/ddclient/internal/preview"
	"github.com/ddownloader/ddclient/internal/utils"
)

type metaOutput struct {
	URL              string `json:"url"`
	ContentLength    uint64 `json:"content_length"`
	ContentType      string `json:"content_type"`
	ProposedFileName string `json:"proposed_file_name"`
	Previewable      bool   `json:"previewable"`
	Preview          string `json:"preview,omitempty"`
}

var metaCmd = &cobra.Command{
	Use:   "meta <url>",
	Short: "Show what the backend knows about a URL before queuing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		sniff, _ := cmd.Flags().GetBool("sniff")

		meta, err := newService(cmd).GetURLMetadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		result := metaOutput{
			URL:              meta.URL,
			ContentLength:    meta.ContentLength,
			ContentType:      meta.ContentType,
			ProposedFileName: meta.ProposedFileName,
			Previewable:      preview.ShouldPreview(*meta),
		}
		if sniff && result.Previewable {
			logger := log.FromContext(cmd.Context())
			p, err := preview.NewFetcher(settingsFrom(cmd).Server.RequestTimeout, logger).Fetch(cmd.Context(), *meta)
			if err != nil {
				logger.Warn("preview failed", "url", meta.URL, "err", err)
				result.Preview = "unavailable"
			} else {
				result.Preview = p.Summary()
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Fprintf(out, "URL:        %s\n", result.URL)
		fmt.Fprintf(out, "Size:       %s\n", utils.FormatBytes(result.ContentLength))
		fmt.Fprintf(out, "Type:       %s\n", result.ContentType)
		fmt.Fprintf(out, "File name:  %s\n", result.ProposedFileName)
		if result.Previewable {
			line := "yes"
			if result.Preview != "" {
				line += " (" + result.Preview + ")"
			}
			fmt.Fprintf(out, "Preview:    %s\n", line)
		} else {
			fmt.Fprintln(out, "Preview:    no")
		}
		return nil
	},
}

func init() {
	metaCmd.Flags().Bool("json", false, "Print the metadata as JSON")
	metaCmd.Flags().Bool("sniff", false, "Fetch the head of previewable images and report their dimensions")
	rootCmd.AddCommand(metaCmd)
}
