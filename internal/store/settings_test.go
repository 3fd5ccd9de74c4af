package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"userperf/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), DBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SettingUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "theme")
	require.ErrorIs(t, err, ErrSettingNotFound)

	require.NoError(t, s.SetSetting(ctx, "theme", "dark"))
	require.NoError(t, s.SetSetting(ctx, "theme", "light"))

	v, err := s.GetSetting(ctx, "theme")
	require.NoError(t, err)
	require.Equal(t, "light", v)
}

func TestStore_SelectionDefaultsToEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sel, err := s.LoadSelection(ctx)
	require.NoError(t, err)
	require.Empty(t, sel.ProjectIDs())

	require.NoError(t, s.SetSetting(ctx, selectionKey, "{broken"))
	_, err = s.LoadSelection(ctx)
	require.Error(t, err)
}

func TestStore_RejectsUnknownCategory(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), []model.Project{{ID: "x", Name: "X", SpreadsheetID: "s", Category: "weekly"}})
	require.Error(t, err)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
