package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/adapters/mtproto"
	tomlrepo "github.com/bnema/telegram-accounts-cli/internal/adapters/repo/toml"
	"github.com/bnema/telegram-accounts-cli/internal/adapters/verification"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/spf13/viper"
)

const (
	configDirName = ".tga"
	envPrefix     = "TGA"

	keyAccountsPath       = tomlrepo.AccountsPathKey
	keyAccountsBackend    = "accounts.backend"
	keyAccountsSQLitePath = "accounts.sqlite_path"
	keySessionsDir        = "sessions.dir"
	keySessionsBackend    = "sessions.backend"
	keyAppID              = "telegram.app_id"
	keyAppHash            = "telegram.app_hash"
	keyProxy              = "telegram.proxy"
	keyFloodWaitRetries   = "telegram.flood_wait_retries"
	keyCodeGrace          = "login.code_grace"
	keyFetchTimeout       = "login.fetch_timeout"
	keyBatchPause         = "login.batch_pause"
	keyImportEnabled      = "import.enabled"
	keyImportPause        = "import.account_pause"
	keyImportPasscode     = "import.passcode"
	keyDispatchDelay      = "dispatch.delay"
	keyBroadcastPolicy    = "dispatch.broadcast_policy"
	keyLogLevel           = "log.level"
)

// loadConfig reads ~/.tga/config.toml (optional) with TGA_* environment
// overrides, e.g. TGA_TELEGRAM_PROXY or TGA_DISPATCH_DELAY.
func loadConfig(configFile string) (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	cfg := viper.New()
	cfg.SetDefault(keyAccountsPath, filepath.Join(configDir, "accounts.toml"))
	cfg.SetDefault(keyAccountsBackend, "toml")
	cfg.SetDefault(keyAccountsSQLitePath, filepath.Join(configDir, "accounts.db"))
	cfg.SetDefault(keySessionsDir, filepath.Join(configDir, "sessions"))
	cfg.SetDefault(keySessionsBackend, "file")
	cfg.SetDefault(keyAppID, mtproto.DesktopAppID)
	cfg.SetDefault(keyAppHash, mtproto.DesktopAppHash)
	cfg.SetDefault(keyProxy, "")
	cfg.SetDefault(keyFloodWaitRetries, 0)
	cfg.SetDefault(keyCodeGrace, verification.DefaultGrace)
	cfg.SetDefault(keyFetchTimeout, verification.DefaultFetchTimeout)
	cfg.SetDefault(keyBatchPause, application.DefaultBatchPause)
	cfg.SetDefault(keyImportEnabled, true)
	cfg.SetDefault(keyImportPause, application.DefaultImportPause)
	cfg.SetDefault(keyImportPasscode, "")
	cfg.SetDefault(keyDispatchDelay, application.DefaultDispatchDelay)
	cfg.SetDefault(keyBroadcastPolicy, "metadata")
	cfg.SetDefault(keyLogLevel, "info")

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if configFile != "" {
		cfg.SetConfigFile(configFile)
	} else {
		cfg.SetConfigName("config")
		cfg.SetConfigType("toml")
		cfg.AddConfigPath(configDir)
	}
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return cfg, nil
}

func durationOrDefault(cfg *viper.Viper, key string, fallback time.Duration) time.Duration {
	value := cfg.GetDuration(key)
	if value < 0 {
		return fallback
	}
	return value
}
