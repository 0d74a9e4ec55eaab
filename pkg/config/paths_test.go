package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotPath(t *testing.T) {
	homedirExpand = func(path string) (string, error) {
		assert.Equal(t, ToolHomePath, path)
		return "/home/user/.hoist", nil
	}

	path, err := SnapshotPath("shop")
	assert.NoError(t, err)
	assert.Equal(t, "/home/user/.hoist/shop/snapshot.json", path)

	path, err = LogPath()
	assert.NoError(t, err)
	assert.Equal(t, "/home/user/.hoist/hoist.log", path)
}

func TestSnapshotPathRejectsUnsafeNames(t *testing.T) {
	homedirExpand = func(string) (string, error) {
		return "/home/user/.hoist", nil
	}

	for _, name := range []string{"", ".", "..", "../../etc", "@acme/shop", `acme\shop`} {
		path, err := SnapshotPath(name)
		assert.Equal(t, ValidateProjectName(name), err, name)
		assert.Error(t, err, name)
		assert.Empty(t, path, name)
	}
}

func TestWithImplicitExclude(t *testing.T) {
	assert.Equal(t,
		[]string{"node_modules", "hoist.yaml", "snapshot.json", "hoist.log"},
		WithImplicitExclude([]string{"node_modules", "hoist.yaml"}))

	// The caller's slice must not be modified.
	exclude := make([]string, 1, 10)
	exclude[0] = ".git"
	WithImplicitExclude(exclude)
	assert.Equal(t, []string{".git"}, exclude)
}
