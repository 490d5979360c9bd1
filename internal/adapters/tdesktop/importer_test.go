package tdesktop

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/gotd/td/session/tdesktop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPathPerPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos    string
		appData string
		want    string
	}{
		{goos: "linux", want: filepath.Join("/home/u", ".local", "share", "TelegramDesktop", "tdata")},
		{goos: "darwin", want: filepath.Join("/home/u", "Library", "Application Support", "Telegram Desktop", "tdata")},
		{goos: "windows", appData: "/appdata", want: filepath.Join("/appdata", "Telegram Desktop", "tdata")},
		{goos: "windows", want: filepath.Join("/home/u", "AppData", "Roaming", "Telegram Desktop", "tdata")},
	}

	for _, tt := range tests {
		t.Run(tt.goos+tt.appData, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultPath(tt.goos, "/home/u", tt.appData))
		})
	}
}

func TestDisabledImporterIsUnavailable(t *testing.T) {
	t.Parallel()

	importer := &Importer{Disabled: true}
	require.ErrorIs(t, importer.Available(), domain.ErrImportUnavailable)

	_, err := importer.Accounts(context.Background(), t.TempDir())
	require.ErrorIs(t, err, domain.ErrImportUnavailable)

	var missing *Importer
	require.ErrorIs(t, missing.Available(), domain.ErrImportUnavailable)
}

func TestAccountsRejectsMissingOrFilePath(t *testing.T) {
	t.Parallel()

	importer := &Importer{}
	_, err := importer.Accounts(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, domain.ErrImportPathMissing)

	file := filepath.Join(t.TempDir(), "tdata")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = importer.Accounts(context.Background(), file)
	require.ErrorContains(t, err, "not a directory")
}

func TestAccountsFailsOnEmptyTdata(t *testing.T) {
	t.Parallel()

	_, err := (&Importer{}).Accounts(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestAccountIdentity(t *testing.T) {
	t.Parallel()

	withID := &account{index: 0, raw: tdesktop.Account{Authorization: tdesktop.MTPAuthorization{UserID: 777}}}
	assert.Equal(t, "777", withID.ID())
	assert.Equal(t, int64(777), withID.UserID())

	anonymous := &account{index: 2}
	assert.Equal(t, "account-3", anonymous.ID())
}

func TestDefaultPathHonoursHomeOverride(t *testing.T) {
	t.Parallel()

	importer := &Importer{HomeDir: "/srv/home"}
	assert.Contains(t, importer.DefaultPath(), "/srv/home")
}
