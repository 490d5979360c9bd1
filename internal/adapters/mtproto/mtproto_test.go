package mtproto

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	filestore "github.com/bnema/telegram-accounts-cli/internal/adapters/secrets/file"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateMapsProtocolErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "code expired", err: tgerr.New(400, "PHONE_CODE_EXPIRED"), want: domain.ErrCodeExpired},
		{name: "code invalid", err: tgerr.New(400, "PHONE_CODE_INVALID"), want: domain.ErrCodeInvalid},
		{name: "code empty", err: tgerr.New(400, "PHONE_CODE_EMPTY"), want: domain.ErrCodeEmpty},
		{name: "password needed", err: fmt.Errorf("sign in: %w", auth.ErrPasswordAuthNeeded), want: domain.ErrPasswordRequired},
		{name: "unauthorized", err: tgerr.New(401, "AUTH_KEY_UNREGISTERED"), want: domain.ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err), tt.want)
		})
	}
}

func TestTranslateFloodWaitCarriesDuration(t *testing.T) {
	t.Parallel()

	rpcErr := &tgerr.Error{Code: 420, Type: "FLOOD_WAIT", Argument: 42}
	var flood *domain.FloodWaitError
	require.ErrorAs(t, translate(rpcErr), &flood)
	assert.Equal(t, 42*time.Second, flood.Wait)
	assert.Equal(t, domain.ReasonRateLimited, domain.Classify(translate(rpcErr)).Reason)
}

func TestTranslatePassesThroughOtherErrors(t *testing.T) {
	t.Parallel()

	plain := errors.New("network down")
	assert.Same(t, plain, translate(plain))
	assert.NoError(t, translate(nil))
}

func TestSessionStorageMapsMissingArtifactToGotdNotFound(t *testing.T) {
	t.Parallel()

	storage := SessionStorage{Store: filestore.NewStore(t.TempDir()), Ref: "1555.session"}

	_, err := storage.LoadSession(context.Background())
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, storage.StoreSession(context.Background(), []byte(`{"Version":1}`)))
	data, err := storage.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"Version":1}`), data)
}

func TestFactoryBuildsClientsPerKind(t *testing.T) {
	t.Parallel()

	factory, err := NewFactory(Config{}, filestore.NewStore(filepath.Join(t.TempDir(), "sessions")), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DesktopAppID, factory.cfg.AppID)

	for _, kind := range []domain.SessionKind{domain.SessionKindStandard, domain.SessionKindDesktop} {
		client, err := factory.New(kind, "1555.session")
		require.NoError(t, err)
		assert.False(t, client.IsConnected())
	}

	_, err = factory.New("mystery", "1555.session")
	require.Error(t, err)
	_, err = factory.New(domain.SessionKindStandard, " ")
	require.Error(t, err)
}

func TestFactoryRejectsUnsupportedProxy(t *testing.T) {
	t.Parallel()

	_, err := NewFactory(Config{Proxy: "gopher://proxy:70"}, filestore.NewStore(t.TempDir()), zerolog.Nop())
	require.Error(t, err)

	_, err = NewFactory(Config{Proxy: "socks5://127.0.0.1:1080"}, filestore.NewStore(t.TempDir()), zerolog.Nop())
	require.NoError(t, err)
}

func TestDisconnectWithoutConnectIsNoop(t *testing.T) {
	t.Parallel()

	client := &Client{}
	require.NoError(t, client.Disconnect(context.Background()))
	assert.False(t, client.IsConnected())

	_, err := client.IsAuthorized(context.Background())
	require.ErrorIs(t, err, errNotConnected)
}

func TestIsPhoneTarget(t *testing.T) {
	t.Parallel()

	assert.True(t, isPhoneTarget("+15551234"))
	assert.False(t, isPhoneTarget("+"))
	assert.False(t, isPhoneTarget("15551234"))
	assert.False(t, isPhoneTarget("@alice"))
}
