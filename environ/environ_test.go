package environ_test

import (
	"testing"

	"github.com/midbel/hq/environ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	env := environ.Empty[int]()
	env.Define("b", 2)
	env.Define("a", 1)
	env.Define("b", 20)

	v, err := env.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = env.Resolve("b")
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = env.Resolve("c")
	assert.ErrorIs(t, err, environ.ErrUndefined)

	assert.Equal(t, []string{"a", "b"}, env.Names())
}

func TestStackScopes(t *testing.T) {
	stack := environ.NewStack[string]()
	stack.Define("x", "global")

	leave := stack.Scope()
	stack.Define("x", "inner")
	stack.Define("y", "inner")

	v, err := stack.Resolve("x")
	require.NoError(t, err)
	assert.Equal(t, "inner", v)
	assert.Equal(t, []string{"y", "x"}, stack.Names())

	leave()

	v, err = stack.Resolve("x")
	require.NoError(t, err)
	assert.Equal(t, "global", v)

	_, err = stack.Resolve("y")
	assert.ErrorIs(t, err, environ.ErrUndefined)
	assert.Equal(t, []string{"x"}, stack.Names())
}

func TestStackNestedScopesUnwindInOrder(t *testing.T) {
	stack := environ.NewStack[int]()

	outer := stack.Scope()
	stack.Define("i", 1)
	inner := stack.Scope()
	stack.Define("i", 2)
	stack.Define("j", 3)
	assert.Equal(t, []string{"j", "i"}, stack.Names())
	inner()

	v, err := stack.Resolve("i")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	outer()
	assert.Empty(t, stack.Names())
}
