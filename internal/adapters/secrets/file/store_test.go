package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidRefs(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		ref     string
		wantErr string
	}{
		{name: "empty", ref: "", wantErr: "session ref is empty"},
		{name: "whitespace", ref: "   ", wantErr: "session ref is empty"},
		{name: "absolute", ref: "/absolute/path", wantErr: "invalid session ref"},
		{name: "traversal", ref: "../escape", wantErr: "invalid session ref"},
		{name: "deep traversal", ref: "../../secret", wantErr: "invalid session ref"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.ref, []byte("value"))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	ref := domain.SessionRefFor("+15551234")
	want := []byte{0x00, 0x01, 0xfe, '\n'}

	require.NoError(t, store.Put(context.Background(), ref, want))

	got, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(filepath.Join(root, ref))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sessionFileMode), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStoreGetMissingWrapsSessionNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), "missing.session")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreDeleteRemovesArtifactAndIsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	ref := "15551234.session"
	require.NoError(t, store.Put(context.Background(), ref, []byte("x")))

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err := os.Stat(filepath.Join(root, ref))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(context.Background(), ref))
}
