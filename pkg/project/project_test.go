package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-sci/meridian/pkg/proto"
	"github.com/meridian-sci/meridian/pkg/types"
)

func testRegistry(t *testing.T) *proto.Registry {
	t.Helper()
	reg := proto.NewRegistry()
	require.NoError(t, reg.Register(&proto.Definition{
		ClassName: "ProtImportMovies",
		New:       func() *types.Protocol { return &types.Protocol{Label: "import movies"} },
	}))
	return reg
}

func TestCreateLaysOutDirectoryStructure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "myproject")
	p, err := Create(dir, testRegistry(t), 1, false)
	require.NoError(t, err)
	defer p.Close()

	for _, sub := range []string{"Logs", "Runs", "Tmp", "Uploads", ".config"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(dir, "project.db"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "settings.json"))
	assert.NoError(t, err)
}

func TestLoadFailsWithoutProjectDB(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, testRegistry(t))
	assert.Error(t, err)
}

func TestLoadRoundTripsSettings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "roundtrip")
	created, err := Create(dir, testRegistry(t), 2, false)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	loaded, err := Load(dir, testRegistry(t))
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, 2, loaded.Settings().RunsView)
	assert.False(t, loaded.IsReadOnly())
}

func TestSetReadOnlyPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "readonly")
	p, err := Create(dir, testRegistry(t), 1, false)
	require.NoError(t, err)

	require.NoError(t, p.SetReadOnly(true))
	require.NoError(t, p.Close())

	loaded, err := Load(dir, testRegistry(t))
	require.NoError(t, err)
	defer loaded.Close()
	assert.True(t, loaded.IsReadOnly())
}

func TestGetHostConfigFallsBackWhenUnknown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hostfallback")
	p, err := Create(dir, testRegistry(t), 1, false)
	require.NoError(t, err)
	defer p.Close()

	cfg := p.GetHostConfig("nonexistent")
	require.NotNil(t, cfg)
}

func TestLaunchProtocolThroughProjectFacade(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "launch")
	p, err := Create(dir, testRegistry(t), 1, false)
	require.NoError(t, err)
	defer p.Close()

	prot, err := p.NewProtocol("ProtImportMovies")
	require.NoError(t, err)
	require.NoError(t, p.Store().CreateProtocol(prot))

	require.NoError(t, p.LaunchProtocol(prot, false))
	assert.Equal(t, types.StatusLaunched, prot.Status)
	assert.False(t, p.LastRunTime().IsZero())
}
