// Package tdesktop reads Telegram Desktop tdata directories and rebinds the
// accounts found there as client sessions.
package tdesktop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/bnema/telegram-accounts-cli/internal/adapters/mtproto"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/gotd/td/session"
	"github.com/gotd/td/session/tdesktop"
)

var ErrNoAccounts = errors.New("no accounts found in tdata")

type Importer struct {
	// Disabled turns the capability off; Available then reports
	// domain.ErrImportUnavailable.
	Disabled bool
	// Passcode unlocks a tdata directory protected by a local passcode.
	Passcode []byte
	// HomeDir overrides the user home directory for DefaultPath.
	HomeDir string
}

var _ ports.DesktopImporter = (*Importer)(nil)

func (i *Importer) Available() error {
	if i == nil || i.Disabled {
		return domain.ErrImportUnavailable
	}
	return nil
}

// DefaultPath returns the usual tdata location for the running platform.
func (i *Importer) DefaultPath() string {
	return defaultPath(runtime.GOOS, i.home(), os.Getenv("APPDATA"))
}

func (i *Importer) home() string {
	if i != nil && strings.TrimSpace(i.HomeDir) != "" {
		return i.HomeDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func defaultPath(goos, home, appData string) string {
	switch goos {
	case "windows":
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Telegram Desktop", "tdata")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Telegram Desktop", "tdata")
	default:
		return filepath.Join(home, ".local", "share", "TelegramDesktop", "tdata")
	}
}

func (i *Importer) Accounts(ctx context.Context, path string) ([]ports.DesktopAccount, error) {
	if err := i.Available(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = i.DefaultPath()
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrImportPathMissing, path)
		}
		return nil, fmt.Errorf("open tdata %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tdata path %s is not a directory", path)
	}

	found, err := tdesktop.Read(path, i.Passcode)
	if err != nil {
		return nil, fmt.Errorf("read tdata %s: %w", path, err)
	}
	if len(found) == 0 {
		return nil, ErrNoAccounts
	}

	accounts := make([]ports.DesktopAccount, 0, len(found))
	for idx, acc := range found {
		accounts = append(accounts, &account{index: idx, raw: acc})
	}
	return accounts, nil
}

type account struct {
	index int
	raw   tdesktop.Account
}

func (a *account) ID() string {
	if id := a.UserID(); id != 0 {
		return strconv.FormatInt(id, 10)
	}
	return "account-" + strconv.Itoa(a.index+1)
}

func (a *account) UserID() int64 {
	return int64(a.raw.Authorization.UserID)
}

// Bind converts the desktop authorization into a client session and stores
// it under ref.
func (a *account) Bind(ctx context.Context, store ports.SessionStore, ref string) error {
	data, err := session.TDesktopSession(a.raw)
	if err != nil {
		return fmt.Errorf("convert desktop session %s: %w", a.ID(), err)
	}
	loader := session.Loader{Storage: mtproto.SessionStorage{Store: store, Ref: ref}}
	if err := loader.Save(ctx, data); err != nil {
		return fmt.Errorf("store desktop session %s: %w", a.ID(), err)
	}
	return nil
}
