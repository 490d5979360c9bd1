package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/telegram-accounts-cli/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestAccountListEmpty(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 0")
	assert.Contains(t, stdout, "No accounts configured.")
}

func TestAccountListShowsStoredAccounts(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeAccountsFixture(home))

	stdout, _, err := executeCLI(t, home, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 2")
	assert.Contains(t, stdout, "+15551234")
	assert.Contains(t, stdout, "Ann Example (@ann)")
	assert.Contains(t, stdout, "[desktop]")
}

func TestAccountListJSON(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeAccountsFixture(home))

	stdout, _, err := executeCLI(t, home, "account", "list", "--json")
	require.NoError(t, err)

	var accounts []accountJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, "+15551234", accounts[0].Phone)
	assert.Equal(t, "standard", accounts[0].SessionKind)
	assert.True(t, accounts[0].Authenticated)
	require.NotNil(t, accounts[0].LastActive)
	assert.Nil(t, accounts[0].Live)
	assert.Equal(t, "id_777", accounts[1].Phone)
	assert.Equal(t, "desktop", accounts[1].SessionKind)
}

func TestAccountRemove(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeAccountsFixture(home))

	stdout, _, err := executeCLI(t, home, "account", "remove", "+15551234")
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed +15551234")

	stdout, _, err = executeCLI(t, home, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 1")
	assert.NotContains(t, stdout, "+15551234")

	_, _, err = executeCLI(t, home, "account", "remove", "+15551234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestAccountCheckWithoutAccounts(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "account", "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 0")
}

func TestLoginRejectsInvalidPhone(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "login", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errOperationFailed)
	assert.Contains(t, err.Error(), "invalid_input")
	assert.NotEmpty(t, strings.TrimSpace(stdout))
}

func TestLoginBatchReportsMalformedLines(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("# accounts\n\n |https://codes.example/1\n"))
	root.SetArgs([]string{"login", "batch", "-"})

	err := root.Execute()
	require.ErrorIs(t, err, errOperationFailed)
	assert.Contains(t, stdout.String(), "Batch login")
	assert.Contains(t, stdout.String(), "invalid phone")
	assert.Contains(t, stdout.String(), "succeeded 0, failed 1, total 1")
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "send", "+15551234", "@news")
	require.ErrorIs(t, err, errOperationFailed)
	assert.Contains(t, stdout, "message is empty")
}

func TestSendQuickRejectsFile(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "send", "+15551234", "@news", "--url", "https://codes.example/1", "--file", "a.jpg")
	require.ErrorIs(t, err, errQuickSendFile)
}

func TestSendRoundRobinWithoutAccounts(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "send", "round-robin", "--targets", "@a,@b", "-m", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts selected")
}

func TestSendBroadcastWithoutLoggedInAccounts(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "send", "broadcast", "@news", "-m", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts selected")
}

func TestSendBatchRejectsUnknownPlanKeys(t *testing.T) {
	home := t.TempDir()
	planPath := filepath.Join(home, "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("message: hi\nbogus: 1\n"), 0o600))

	_, _, err := executeCLI(t, home, "send", "batch", "--plan", planPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode plan")
}

func TestSendBatchRequiresPlanFlag(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "send", "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan")
}

func TestImportReportsMissingPath(t *testing.T) {
	home := t.TempDir()
	missing := filepath.Join(home, "nowhere", "tdata")

	stdout, _, err := executeCLI(t, home, "import", "--path", missing)
	require.ErrorIs(t, err, errOperationFailed)
	assert.Contains(t, stdout, "desktop data path does not exist")
	assert.Contains(t, stdout, "failed 1")
}

func TestImportDisabledByEnvironment(t *testing.T) {
	t.Setenv("TGA_IMPORT_ENABLED", "false")

	stdout, _, err := executeCLI(t, t.TempDir(), "import")
	require.ErrorIs(t, err, errOperationFailed)
	assert.Contains(t, stdout, "desktop import unavailable")
}

func TestInvalidBroadcastPolicyFailsWiring(t *testing.T) {
	t.Setenv("TGA_DISPATCH_BROADCAST_POLICY", "sometimes")

	_, _, err := executeCLI(t, t.TempDir(), "account", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.broadcast_policy")
}

func TestConfigFileSelectsSQLiteBackend(t *testing.T) {
	home := t.TempDir()
	configPath := filepath.Join(home, "tga.toml")
	dbPath := filepath.Join(home, "accounts.db")
	config := "[accounts]\nbackend = \"sqlite\"\nsqlite_path = \"" + filepath.ToSlash(dbPath) + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	stdout, _, err := executeCLI(t, home, "--config", configPath, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accounts: 0")
	assert.FileExists(t, dbPath)
}

func TestVerifyUnknownAccount(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "verify", "+15551234", "@news")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestScheduleValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "no mode",
			args: []string{"schedule", "--cron", "@hourly", "-m", "hi"},
			want: errScheduleMode.Error(),
		},
		{
			name: "two modes",
			args: []string{"schedule", "--cron", "@hourly", "-m", "hi", "--broadcast", "@news", "--targets", "@a"},
			want: errScheduleMode.Error(),
		},
		{
			name: "bad spec",
			args: []string{"schedule", "--cron", "every tuesday", "-m", "hi", "--broadcast", "@news"},
			want: "parse cron spec",
		},
		{
			name: "empty message",
			args: []string{"schedule", "--cron", "@hourly", "--accounts", "+15551234", "--targets", "@a"},
			want: "message is empty",
		},
		{
			name: "bad timezone",
			args: []string{"schedule", "--cron", "@hourly", "-m", "hi", "--broadcast", "@news", "--timezone", "Mars/Olympus"},
			want: "load timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCLI(t, t.TempDir(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMenuListsAndRemovesAccounts(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeAccountsFixture(home))
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("1\n9\n7\n+15551234\n8\n"))
	root.SetArgs([]string{"menu"})

	require.NoError(t, root.Execute())
	output := stdout.String()
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, `unknown choice "9"`)
	assert.Contains(t, output, "removed +15551234")

	listed, _, err := executeCLI(t, home, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, listed, "accounts: 1")
}

func TestMenuStopsAtEndOfInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("2\n"))
	root.SetArgs([]string{"menu"})

	require.NoError(t, root.Execute())
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeAccountsFixture(home string) error {
	configDir := filepath.Join(home, ".tga")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	accounts := `version = 1

[[accounts]]
phone = "+15551234"
session_ref = "session-15551234"
session_kind = "standard"
verification_url = "https://codes.example/15551234"
authenticated = true
last_active = "2026-03-01T09:30:00Z"

[accounts.profile]
display_name = "Ann Example"
username = "ann"
user_id = 42

[[accounts]]
phone = "id_777"
session_ref = "desktop-777"
session_kind = "desktop"
authenticated = false

[accounts.profile]
display_name = "Desk Top"
user_id = 777
`

	return os.WriteFile(filepath.Join(configDir, "accounts.toml"), []byte(accounts), 0o600)
}
