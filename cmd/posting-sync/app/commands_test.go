package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/posting-sync/database"
	"github.com/stacklok/posting-sync/internal/versions"
)

const minimalConfig = `
provider:
  baseURL: https://jobs.example.com
sync:
  keywords: [golang]
lock:
  backend: file
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with args and returns its stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, c := range NewRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "sync", "warm-cache", "migrate", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "", "version", "--format", "json")
		require.NoError(t, err)

		var info versions.VersionInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, versions.GetVersionInfo().GoVersion, info.GoVersion)
		assert.NotEmpty(t, info.Platform)
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "", "version")
		require.NoError(t, err)
		assert.Equal(t, versions.GetVersionInfo().String()+"\n", out)
	})
}

func TestCommands_RequireConfig(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"serve"},
		{"sync"},
		{"warm-cache"},
		{"migrate", "up"},
		{"migrate", "down"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()
			_, err := execute(t, "", args...)
			require.ErrorContains(t, err, `required flag(s) "config" not set`)
		})
	}
}

func TestCommands_InvalidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "provider:\n  baseURL: not-a-url\nsync:\n  keywords: [golang]\n")
	for _, args := range [][]string{
		{"sync", "--config", path},
		{"warm-cache", "--config", path},
		{"migrate", "up", "--config", path, "--yes"},
	} {
		_, err := execute(t, "", args...)
		require.ErrorContains(t, err, "failed to load configuration", strings.Join(args, " "))
	}
}

func TestMigrate_RequiresDatabase(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, minimalConfig)
	_, err := execute(t, "", "migrate", "up", "--config", path, "--yes")
	require.ErrorContains(t, err, "database configuration is required")
}

func TestServeCmd_Flags(t *testing.T) {
	t.Parallel()

	cmd := newServeCmd()
	address := cmd.Flags().Lookup("address")
	require.NotNil(t, address)
	assert.Equal(t, ":8080", address.DefValue)

	timeout := cmd.Flags().Lookup("shutdown-timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, defaultGracefulTimeout.String(), timeout.DefValue)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yesFlag bool
		input   string
		want    bool
		wantErr bool
	}{
		{name: "yes flag skips the prompt", yesFlag: true, want: true},
		{name: "yes", input: "yes\n", want: true},
		{name: "short yes", input: "Y\n", want: true},
		{name: "no", input: "no\n", want: false},
		{name: "anything else", input: "maybe\n", want: false},
		{name: "no input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := &cobra.Command{}
			cmd.Flags().Bool("yes", false, "")
			require.NoError(t, cmd.Flags().Set("yes", strconv.FormatBool(tt.yesFlag)))
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetIn(strings.NewReader(tt.input))

			got, err := confirm(cmd, "About to migrate.")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if !tt.yesFlag {
				assert.Contains(t, out.String(), "About to migrate. Continue? (yes/no):")
			}
		})
	}
}

// databaseConfig renders a config file pointing at connStr
func databaseConfig(t *testing.T, connStr string) string {
	t.Helper()

	u, err := url.Parse(connStr)
	require.NoError(t, err)
	password, _ := u.User.Password()

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte(password), 0o600))

	return writeConfig(t, minimalConfig+fmt.Sprintf(`
database:
  host: %s
  port: %s
  user: %s
  passwordFile: %s
  database: %s
  sslMode: disable
`, u.Hostname(), u.Port(), u.User.Username(), passwordFile, strings.TrimPrefix(u.Path, "/")))
}

func TestMigrate_UpAndDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	connStr := database.SetupTestDBContainer(t, ctx)
	path := databaseConfig(t, connStr)

	// Declining the prompt leaves the database untouched
	_, err := execute(t, "no\n", "migrate", "up", "--config", path)
	require.NoError(t, err)
	version, _, err := database.GetVersion(connStr)
	require.NoError(t, err)
	assert.Zero(t, version)

	_, err = execute(t, "", "migrate", "up", "--config", path, "--yes")
	require.NoError(t, err)
	version, dirty, err := database.GetVersion(connStr)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.NotZero(t, version)

	_, err = execute(t, "", "migrate", "down", "--config", path, "--yes")
	require.NoError(t, err)
	version, _, err = database.GetVersion(connStr)
	require.NoError(t, err)
	assert.Zero(t, version)
}
