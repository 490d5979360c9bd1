package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, accountsPath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(AccountsPathKey, accountsPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func sampleAccounts() []domain.Account {
	active := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	return []domain.Account{
		{
			Phone:           "+15551230001",
			SessionRef:      "15551230001.session",
			SessionKind:     domain.SessionKindStandard,
			VerificationURL: "https://codes.example/1",
			Authenticated:   true,
			LastActive:      active,
			Profile:         domain.Profile{DisplayName: "Ada Lovelace", Username: "ada", UserID: 1001, Phone: "15551230001"},
		},
		{
			Phone:         "id_2002",
			SessionRef:    "tdesktop_2002.session",
			SessionKind:   domain.SessionKindDesktop,
			Authenticated: true,
			LastActive:    active.Add(time.Hour),
			Profile:       domain.Profile{DisplayName: "Grace", UserID: 2002},
		},
		{
			Phone:       "+15551230003",
			SessionRef:  "15551230003.session",
			SessionKind: domain.SessionKindStandard,
		},
	}
}

func TestRepositoryRoundTripPreservesOrder(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	accounts := sampleAccounts()

	require.NoError(t, repo.SaveAll(context.Background(), accounts))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestRepositoryResaveIsByteIdentical(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repo := newTestRepository(t, accountsPath)
	require.NoError(t, repo.SaveAll(context.Background(), sampleAccounts()))

	resave := func() []byte {
		loaded, err := repo.List(context.Background())
		require.NoError(t, err)
		require.NoError(t, repo.SaveAll(context.Background(), loaded))
		data, err := os.ReadFile(accountsPath)
		require.NoError(t, err)
		return data
	}

	once := resave()
	twice := resave()
	assert.Equal(t, string(once), string(twice))
}

func TestRepositoryDefaultsMissingSessionKindToStandard(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[accounts]]",
		"phone = \"+1555\"",
		"session_ref = \"1555.session\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, accountsPath)
	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, domain.SessionKindStandard, accounts[0].Kind())
	assert.True(t, accounts[0].LastActive.IsZero())
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Account{{Phone: "+1555", SessionRef: "1555.session"}}))

	accountsPath := filepath.Join(homeDir, ".tga", "accounts.toml")
	assert.Equal(t, accountsPath, repo.Path())
	info, err := os.Stat(accountsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "accounts.toml"))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("accounts = ["), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode accounts file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SaveAll(ctx, sampleAccounts())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesNeverLeavePartialFile(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repoA := newTestRepository(t, accountsPath)
	repoB := newTestRepository(t, accountsPath)

	const writes = 50
	start := make(chan struct{})
	errCh := make(chan error, writes*2)
	var wg sync.WaitGroup
	wg.Add(2)

	for _, repo := range []*Repository{repoA, repoB} {
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < writes; i++ {
				errCh <- repo.SaveAll(context.Background(), sampleAccounts())
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	accounts, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, len(sampleAccounts()))
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repo := newTestRepository(t, accountsPath)

	require.NoError(t, repo.SaveAll(context.Background(), sampleAccounts()[:1]))

	data, err := os.ReadFile(accountsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "2026-02-14T11:00:00Z")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("version = 999\n\naccounts = []\n"), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported accounts schema version")
}
