package filelock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), "sub", "run.lock"))
	require.Nil(t, err)
	l2, err := New(l.path)
	require.Nil(t, err)

	rel, ok, err := l.TryLock(context.Background())
	require.Nil(t, err)
	require.True(t, ok)

	_, ok, err = l2.TryLock(context.Background())
	require.Nil(t, err)
	assert.False(t, ok)

	require.Nil(t, rel())

	rel2, ok, err := l2.TryLock(context.Background())
	require.Nil(t, err)
	assert.True(t, ok)
	assert.Nil(t, rel2())
}

func TestNew_Fail(t *testing.T) {
	_, err := New("")
	assert.NotNil(t, err)
}
