package devserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, dir
}

func TestNewManager_CreatesDefaultDatabase(t *testing.T) {
	m, dir := newTestManager(t)

	assert.Equal(t, DefaultDatabase, m.Active())
	_, err := os.Stat(filepath.Join(dir, DefaultDatabase))
	assert.NoError(t, err)

	marker, err := os.ReadFile(filepath.Join(dir, activeMarker))
	require.NoError(t, err)
	assert.Contains(t, string(marker), DefaultDatabase)
}

func TestManager_CreateDoesNotSwitch(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Create("side"))
	assert.Equal(t, DefaultDatabase, m.Active())

	dbs, err := m.List()
	require.NoError(t, err)
	require.Len(t, dbs, 2)
	assert.Equal(t, DefaultDatabase, dbs[0].Name)
	assert.True(t, dbs[0].Active)
	assert.Equal(t, "side.db", dbs[1].Name)
	assert.False(t, dbs[1].Active)
}

func TestManager_CreateDuplicate(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Create("side"))
	assert.ErrorContains(t, m.Create("side.db"), "already exists")
}

func TestManager_SwitchIsolatesData(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Store().CreateIssue(ctx, "only in default", "", "")
	require.NoError(t, err)

	require.NoError(t, m.Create("side"))
	require.NoError(t, m.Switch("side"))
	assert.Equal(t, "side.db", m.Active())

	issues, err := m.Store().ListIssues(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, m.Switch(DefaultDatabase))
	issues, err = m.Store().ListIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestManager_SwitchMissing(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorContains(t, m.Switch("ghost"), "not found")
}

func TestManager_ActivePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.Create("side"))
	require.NoError(t, m.Switch("side"))
	require.NoError(t, m.Close())

	reopened, err := NewManager(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, "side.db", reopened.Active())
}

func TestManager_DeleteActiveRefused(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorContains(t, m.Delete(DefaultDatabase), "active")
}

func TestManager_Delete(t *testing.T) {
	m, dir := newTestManager(t)
	require.NoError(t, m.Create("side"))

	require.NoError(t, m.Delete("side"))
	_, err := os.Stat(filepath.Join(dir, "side.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_RenameActiveStaysActive(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Store().CreateIssue(ctx, "survives rename", "", "")
	require.NoError(t, err)

	require.NoError(t, m.Rename(DefaultDatabase, "renamed"))
	assert.Equal(t, "renamed.db", m.Active())

	issues, err := m.Store().ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "survives rename", issues[0].Title)
}

func TestManager_RenameOntoExisting(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Create("side"))
	assert.ErrorContains(t, m.Rename("side", DefaultDatabase), "already exists")
}

func TestSeed_OnlyAppliesToEmptyDatabase(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	seed := &SeedFile{
		Users: []SeedUser{{Name: "ana", Role: "Owner"}},
		Tags:  []SeedTag{{Tag: "bug", Color: "#ff0000"}},
		Issues: []SeedIssue{
			{
				Title:      "Seeded issue",
				Author:     "ana",
				Status:     "In-Progress",
				AssignedTo: "ana",
				Tags:       []string{"bug"},
				Comments:   []SeedComment{{Author: "ana", Text: "from seed"}},
			},
		},
	}

	require.NoError(t, m.Seed(ctx, seed))

	issues, err := m.Store().ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "In-Progress", issues[0].Status)
	assert.Equal(t, "ana", issues[0].AssignedTo)

	tags, err := m.Store().ListIssueTags(ctx, issues[0].ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#ff0000", tags[0].Color)

	// Second application is a no-op.
	require.NoError(t, m.Seed(ctx, seed))
	issues, err = m.Store().ListIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}
