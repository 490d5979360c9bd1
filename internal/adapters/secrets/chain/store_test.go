package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	portmocks "github.com/bnema/telegram-accounts-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ref = "15551234.session"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, ref).Return([]byte("from-pass"), nil).Once()

	value, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("from-pass"), value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, ref).Return(nil, errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, ref).Return([]byte("from-file"), nil).Once()

	value, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("from-file"), value)
}

func TestStoreGetKeepsSessionNotFoundWhenBothMiss(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, ref).Return(nil, fmt.Errorf("pass: %w", domain.ErrSessionNotFound)).Once()
	fallback.EXPECT().Get(mock.Anything, ref).Return(nil, fmt.Errorf("file: %w", domain.ErrSessionNotFound)).Once()

	_, err := store.Get(context.Background(), ref)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
}

func TestStoreGetPromotesSessionFoundOnlyInFallback(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("pass: %w", domain.ErrSessionNotFound)

	tests := []struct {
		name      string
		putErr    error
		deleteErr error
		wantPut   bool
		wantDel   bool
	}{
		{name: "moved to primary", wantPut: true, wantDel: true},
		{name: "primary put fails keeps fallback copy", putErr: errors.New("pass locked"), wantPut: true},
		{name: "fallback delete fails still returns data", deleteErr: errors.New("read-only"), wantPut: true, wantDel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			primary := portmocks.NewMockSessionStore(t)
			fallback := portmocks.NewMockSessionStore(t)
			store := NewStore(primary, fallback)

			primary.EXPECT().Get(mock.Anything, ref).Return(nil, notFound).Once()
			fallback.EXPECT().Get(mock.Anything, ref).Return([]byte("from-file"), nil).Once()
			if tt.wantPut {
				primary.EXPECT().Put(mock.Anything, ref, []byte("from-file")).Return(tt.putErr).Once()
			}
			if tt.wantDel {
				fallback.EXPECT().Delete(mock.Anything, ref).Return(tt.deleteErr).Once()
			}

			value, err := store.Get(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, []byte("from-file"), value)
		})
	}
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, ref, []byte("s")).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, ref, []byte("s")).Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), ref, []byte("s")))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, ref, []byte("s")).Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), ref, []byte("s")))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, ref).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, ref).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), ref))
}

func TestStoreDeleteToleratesPrimaryFailureWhenFallbackSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, ref).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, ref).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), ref))
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSessionStore(t)
	fallback := portmocks.NewMockSessionStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, ref).Return(nil, context.Canceled).Once()

	_, err := store.Get(context.Background(), ref)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSessionStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)
	_, err = NewStoreChecked(portmocks.NewMockSessionStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
