package confkit_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFKIT_DIR", "settings")

	tests := []struct {
		name     string
		base     string
		file     string
		expected string
	}{
		{name: "absolute path", base: "/base/dir", file: "/abs/market.yaml", expected: "/abs/market.yaml"},
		{name: "relative path", base: "/base/dir", file: "market.yaml", expected: "/base/dir/market.yaml"},
		{name: "env var", base: "/base/dir", file: "${CONFKIT_DIR}/market.yaml", expected: "/base/dir/settings/market.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, confkit.ResolvePath(tt.base, tt.file))
		})
	}
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "/etc/cryptodash", confkit.BaseDir("/etc/cryptodash/cryptodash.yaml"))
	assert.Equal(t, "etc", confkit.BaseDir("etc/cryptodash.yaml"))
}

func TestSection_Hydrate(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		section := &confkit.Section[string]{}
		err := section.Hydrate("/base", func(string) (*string, error) {
			t.Error("loader should not be called for empty file")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Nil(t, section.Value)
		assert.False(t, section.Configured())
	})

	t.Run("successful hydration", func(t *testing.T) {
		section := &confkit.Section[string]{File: "market.yaml"}
		expected := "loaded"

		err := section.Hydrate("/base", func(path string) (*string, error) {
			assert.Equal(t, "/base/market.yaml", path)
			return &expected, nil
		})
		require.NoError(t, err)
		require.NotNil(t, section.Value)
		assert.Equal(t, expected, *section.Value)
		assert.Equal(t, "/base/market.yaml", section.File)
		assert.True(t, section.Configured())
	})

	t.Run("loader error", func(t *testing.T) {
		section := &confkit.Section[string]{File: "market.yaml"}
		boom := errors.New("boom")
		err := section.Hydrate("/base", func(string) (*string, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "market.yaml", section.File)
	})
}

func TestProjectPath(t *testing.T) {
	p, err := confkit.ProjectPath("etc/market.yaml")
	require.NoError(t, err)
	root := filepath.Dir(filepath.Dir(p))
	_, statErr := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, statErr, "project root should contain go.mod")
}
