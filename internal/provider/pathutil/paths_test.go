package pathutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
)

var alice = config.TargetUser{Name: "alice", UID: 1000, GID: 1000, Home: "/home/alice"}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		user    config.TargetUser
		want    string
		wantErr bool
	}{
		{name: "home relative", path: "~/.config/hypr/hyprland.conf", user: alice, want: "/home/alice/.config/hypr/hyprland.conf"},
		{name: "bare home", path: "~", user: alice, want: "/home/alice"},
		{name: "absolute", path: "/etc/xdg/foo//bar", user: alice, want: "/etc/xdg/foo/bar"},
		{name: "relative", path: "config/foo", user: alice, wantErr: true},
		{name: "no home", path: "~/.bashrc", user: config.TargetUser{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tt.path, tt.user)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnderHome(t *testing.T) {
	t.Parallel()
	assert.True(t, UnderHome("/home/alice/.config", alice))
	assert.True(t, UnderHome("/home/alice", alice))
	assert.False(t, UnderHome("/home/alicex/.config", alice))
	assert.False(t, UnderHome("/etc", alice))
	assert.False(t, UnderHome("/home/alice", config.TargetUser{}))
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()
	mem := afero.NewMemMapFs()
	fs := filesystem.New(mem)
	require.NoError(t, mem.MkdirAll("/home/alice", 0o700))

	require.NoError(t, EnsureDir(fs, "/home/alice/.config/hypr", alice))

	for _, dir := range []string{"/home/alice/.config", "/home/alice/.config/hypr"} {
		info, err := mem.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	// already present
	require.NoError(t, EnsureDir(fs, "/home/alice/.config/hypr", alice))
}
