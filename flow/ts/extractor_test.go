package ts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tsSource = `export function transfer(amount: number, to: string, memo?: string): boolean {
  if (amount <= 0) {
    return false;
  }
  if (to.length === 0) {
    return false;
  }
  send(amount, to, memo);
  return true;
}

const total = (xs: number[]): number => {
  let sum = 0;
  for (const x of xs) {
    sum += x;
  }
  return sum;
};
`

const jsSource = `function add(a, b) {
  return a + b;
}

const greet = name => "hi " + name;
`

func TestExtract_TypeScriptFunction(t *testing.T) {
	e := NewExtractor("typescript")
	facts, err := e.Extract(context.Background(), []byte(tsSource), "transfer")
	require.NoError(t, err)

	require.Len(t, facts.Parameters, 3)
	assert.Equal(t, "amount", facts.Parameters[0].Name)
	assert.Equal(t, "number", facts.Parameters[0].Type)
	assert.True(t, facts.Parameters[0].Required)
	assert.Equal(t, "memo", facts.Parameters[2].Name)
	assert.False(t, facts.Parameters[2].Required)

	assert.Equal(t, "boolean", facts.ReturnType)
	assert.Len(t, facts.Guards, 2)
	assert.Len(t, facts.EarlyReturns, 2)
	assert.Equal(t, 5, facts.Complexity)
	assert.True(t, facts.HasValidation())
}

func TestExtract_ArrowFunction(t *testing.T) {
	e := NewExtractor("typescript")
	facts, err := e.Extract(context.Background(), []byte(tsSource), "total")
	require.NoError(t, err)

	require.Len(t, facts.Parameters, 1)
	assert.Equal(t, "xs", facts.Parameters[0].Name)
	require.Len(t, facts.Loops, 1)
	assert.Empty(t, facts.EarlyReturns)
	assert.Equal(t, 2, facts.Complexity)
}

func TestExtract_JavaScriptFunction(t *testing.T) {
	e := NewExtractor("javascript")
	facts, err := e.Extract(context.Background(), []byte(jsSource), "add")
	require.NoError(t, err)

	require.Len(t, facts.Parameters, 2)
	assert.Equal(t, "a", facts.Parameters[0].Name)
	assert.True(t, facts.Parameters[0].Required)
	assert.Equal(t, 1, facts.Complexity)
	assert.Empty(t, facts.EarlyReturns)
}

func TestExtract_ExpressionBodiedArrow(t *testing.T) {
	e := NewExtractor("javascript")
	facts, err := e.Extract(context.Background(), []byte(jsSource), "greet")
	require.NoError(t, err)

	require.Len(t, facts.Parameters, 1)
	assert.Equal(t, "name", facts.Parameters[0].Name)
	// Expression bodies have no early returns by construction.
	assert.Empty(t, facts.EarlyReturns)
	assert.Equal(t, 1, facts.Complexity)
}

func TestExtract_NotFound(t *testing.T) {
	e := NewExtractor("typescript")
	_, err := e.Extract(context.Background(), []byte(tsSource), "missing")
	assert.Error(t, err)
}
