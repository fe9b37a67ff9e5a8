package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddownloader/ddclient/internal/config"
	"github.com/ddownloader/ddclient/internal/core"
	"github.com/ddownloader/ddclient/internal/testutil"
	"github.com/ddownloader/ddclient/internal/types"
)

// resetCommands clears flag values and contexts left over from a previous run.
func resetCommands(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(context.Background())
	for _, sub := range c.Commands() {
		resetCommands(sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommands(rootCmd)
	globalConfigPath = ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func seededBackend(t *testing.T, opts ...testutil.BackendOption) *testutil.Backend {
	t.Helper()
	tasks := testutil.WithTasks(
		types.Task{TargetPath: "movies/big-buck-bunny.mkv", URL: "https://example.com/bbb.mkv", DownloadedSize: 256, TotalSize: 1024, Status: types.StatusRunning},
		types.Task{TargetPath: "iso/debian.iso", URL: "https://example.com/debian.iso", Status: types.StatusDone, DownloadedSize: 2048, TotalSize: 2048},
	)
	return testutil.NewBackendT(t, append([]testutil.BackendOption{tasks}, opts...)...)
}

func TestLsCmd_Alias(t *testing.T) {
	assert.Contains(t, lsCmd.Aliases, "l")
}

func TestLs_Table(t *testing.T) {
	backend := seededBackend(t)

	out, _, err := execute(t, "ls", "--base-url", backend.URL())
	require.NoError(t, err)

	assert.Contains(t, out, "movies/big-buck-bunny.mkv")
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, "25.00%")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "Page 1: 2 of 2 tasks")
	assert.EqualValues(t, 1, backend.ListRequests.Load())
}

func TestLs_JSON(t *testing.T) {
	backend := seededBackend(t)

	out, _, err := execute(t, "l", "--json", "--base-url", backend.URL())
	require.NoError(t, err)

	var page types.TaskPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Tasks, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, types.StatusRunning, page.Tasks[0].Status)
	assert.Equal(t, "iso/debian.iso", page.Tasks[1].TargetPath)
}

func TestLs_Paging(t *testing.T) {
	backend := seededBackend(t)

	out, _, err := execute(t, "ls", "--page", "2", "--page-size", "1", "--base-url", backend.URL())
	require.NoError(t, err)

	assert.Contains(t, out, "iso/debian.iso")
	assert.NotContains(t, out, "big-buck-bunny")
	assert.Contains(t, out, "Page 2: 1 of 2 tasks")
}

func TestLs_Empty(t *testing.T) {
	backend := testutil.NewBackendT(t)

	out, _, err := execute(t, "ls", "--base-url", backend.URL())
	require.NoError(t, err)
	assert.Equal(t, "No tasks.\n", out)
}

func TestLs_BackendError(t *testing.T) {
	backend := seededBackend(t)
	backend.Fail(testutil.RouteListTasks, http.StatusInternalServerError, "database is locked")

	out, _, err := execute(t, "ls", "--base-url", backend.URL())
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, core.ErrServiceFailure))
	assert.Contains(t, err.Error(), "database is locked")
}

func TestBaseURLFromEnvironment(t *testing.T) {
	backend := seededBackend(t)
	t.Setenv("DDCLIENT_SERVER_BASE_URL", backend.URL())

	out, _, err := execute(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "iso/debian.iso")
}

func TestMeta(t *testing.T) {
	const (
		pngURL = "https://example.com/cat.png"
		zipURL = "https://example.com/archive.zip"
	)
	backend := testutil.NewBackendT(t, testutil.WithMetadata(
		types.URLMetadata{URL: pngURL, ContentLength: 4096, ContentType: "image/png", ProposedFileName: "cat.png"},
		types.URLMetadata{URL: zipURL, ContentLength: 1 << 20, ContentType: "application/zip", ProposedFileName: "archive.zip"},
	))

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "meta", pngURL, "--base-url", backend.URL())
		require.NoError(t, err)
		assert.Contains(t, out, "File name:  cat.png")
		assert.Contains(t, out, "Type:       image/png")
		assert.Contains(t, out, "Preview:    yes")
	})

	t.Run("not previewable", func(t *testing.T) {
		out, _, err := execute(t, "meta", zipURL, "--base-url", backend.URL())
		require.NoError(t, err)
		assert.Contains(t, out, "Preview:    no")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "meta", pngURL, "--json", "--base-url", backend.URL())
		require.NoError(t, err)

		var got metaOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, metaOutput{
			URL:              pngURL,
			ContentLength:    4096,
			ContentType:      "image/png",
			ProposedFileName: "cat.png",
			Previewable:      true,
		}, got)
	})
}

func TestMeta_InvalidURLMakesNoRequest(t *testing.T) {
	backend := testutil.NewBackendT(t)

	_, _, err := execute(t, "meta", "ftp://example.com/file", "--base-url", backend.URL())
	require.Error(t, err)

	var invalid *core.InvalidURLError
	assert.True(t, errors.As(err, &invalid))
	assert.Zero(t, backend.MetadataRequests.Load())
}

func TestMeta_Sniff(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))

	files := testutil.NewMockServerT(t,
		testutil.WithData(buf.Bytes()),
		testutil.WithContentType("image/png"),
	)
	target := files.URL("/cat.png")
	backend := testutil.NewBackendT(t, testutil.WithMetadata(types.URLMetadata{
		URL:              target,
		ContentLength:    uint64(buf.Len()),
		ContentType:      "image/png",
		ProposedFileName: "cat.png",
	}))

	out, _, err := execute(t, "meta", target, "--sniff", "--base-url", backend.URL())
	require.NoError(t, err)
	assert.Contains(t, out, "Preview:    yes (PNG 3x2")
}

func TestAdd(t *testing.T) {
	const target = "https://example.com/releases/archive.zip"

	tests := []struct {
		name     string
		args     []string
		wantPath string
	}{
		{name: "proposed name", args: []string{target}, wantPath: "archive-1.0.zip"},
		{name: "explicit name", args: []string{target, "--name", "backups/a.zip"}, wantPath: "backups/a.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewBackendT(t, testutil.WithMetadata(types.URLMetadata{
				URL:              target,
				ContentLength:    2048,
				ContentType:      "application/zip",
				ProposedFileName: "archive-1.0.zip",
			}))

			out, _, err := execute(t, append([]string{"add", "--base-url", backend.URL()}, tt.args...)...)
			require.NoError(t, err)

			assert.Contains(t, out, "Queued "+tt.wantPath+" (task 1)")
			queued := backend.Queued()
			require.Len(t, queued, 1)
			assert.Equal(t, types.TaskRequest{URL: target, RelativeTargetPath: tt.wantPath}, queued[0])
		})
	}
}

func TestAdd_Batch(t *testing.T) {
	backend := testutil.NewBackendT(t)

	batch := filepath.Join(t.TempDir(), "urls.txt")
	content := "# nightly images\nhttps://example.com/a.iso\n\n  https://example.com/b.iso  \n"
	require.NoError(t, os.WriteFile(batch, []byte(content), 0o644))

	out, _, err := execute(t, "add", "--batch", batch, "https://example.com/c.iso", "--base-url", backend.URL())
	require.NoError(t, err)

	assert.Contains(t, out, "Queued a.iso")
	assert.Contains(t, out, "Queued b.iso")
	assert.Contains(t, out, "Queued c.iso")
	assert.Len(t, backend.Queued(), 3)
}

func TestAdd_PartialFailure(t *testing.T) {
	backend := testutil.NewBackendT(t)

	out, stderr, err := execute(t, "add", "not-a-url", "https://example.com/ok.bin", "--base-url", backend.URL())
	require.Error(t, err)

	assert.Contains(t, err.Error(), "1 of 2 tasks could not be queued")
	assert.Contains(t, stderr, "not-a-url")
	assert.Contains(t, out, "Queued ok.bin")
	assert.Len(t, backend.Queued(), 1)
}

func TestAdd_Errors(t *testing.T) {
	backend := testutil.NewBackendT(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no urls", args: []string{"add"}, want: "no URLs given"},
		{name: "name with several urls", args: []string{"add", "--name", "x.bin", "https://example.com/a", "https://example.com/b"}, want: "--name can only be used with a single URL"},
		{name: "missing batch file", args: []string{"add", "--batch", filepath.Join(t.TempDir(), "missing.txt")}, want: "error reading batch file"},
		{name: "unsafe name", args: []string{"add", "--name", "../escape.bin", "https://example.com/a"}, want: "1 of 1 tasks could not be queued"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append(tt.args, "--base-url", backend.URL())...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Zero(t, backend.QueueRequests.Load())
}

func TestConfigPath(t *testing.T) {
	out, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, config.GetSettingsPath()+"\n", out)

	custom := filepath.Join(t.TempDir(), "custom.json")
	out, _, err = execute(t, "config", "path", "--config", custom)
	require.NoError(t, err)
	assert.Equal(t, custom+"\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddclient", "settings.json")

	out, _, err := execute(t, "config", "init", "--config", path, "--base-url", "http://nas.local:5000/")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	saved, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://nas.local:5000", saved.Server.BaseURL)

	_, _, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	t.Setenv("DDCLIENT_SERVER_PAGE_SIZE", "5")

	out, _, err := execute(t, "config", "show", "--timeout", "7s")
	require.NoError(t, err)
	assert.Regexp(t, `server\.page_size\s+5\n`, out)
	assert.Regexp(t, `server\.request_timeout\s+7s\n`, out)
	assert.Regexp(t, `server\.base_url\s+http://127\.0\.0\.1:5000\n`, out)

	// bare "config" behaves like "config show"
	bare, _, err := execute(t, "config")
	require.NoError(t, err)
	assert.Regexp(t, `server\.page_size\s+5\n`, bare)
}

func TestConfigShow_JSON(t *testing.T) {
	out, _, err := execute(t, "config", "show", "--json", "--log-level", "debug")
	require.NoError(t, err)

	var got config.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "debug", got.General.LogLevel)
	assert.Equal(t, config.DefaultSettings().Server, got.Server)
}

func TestCorruptSettingsFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := execute(t, "ls", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read settings")

	out, _, err := execute(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://example.com/1\n# comment\n\n   \nhttps://example.com/2\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := readURLsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/1", "https://example.com/2"}, urls)

	_, err = readURLsFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
