package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"racestats/internal/store"

	"github.com/stretchr/testify/require"
)

func TestRunClosesDatabaseOnError(t *testing.T) {
	t.Cleanup(func() { session = nil })

	dir := t.TempDir()
	err := run(context.Background(), []string{
		"--config", filepath.Join(dir, "racestats.json5"),
		"--db", filepath.Join(dir, "races.db"),
		"results", "7/2/1",
	})
	require.ErrorIs(t, err, store.ErrRaceNotFound)

	require.NotNil(t, session)
	st, err := session.Store(context.Background())
	require.NoError(t, err)
	_, err = st.Races(context.Background())
	require.ErrorContains(t, err, "database is closed")
}
