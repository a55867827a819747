package java

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `public class Account {
    private long balance;

    public long withdraw(long amount) {
        if (amount <= 0) {
            throw new IllegalArgumentException("amount must be positive");
        }
        if (amount > balance) {
            return -1;
        }
        balance -= amount;
        return balance;
    }

    public long sumAll(long[] values) {
        long total = 0;
        for (long v : values) {
            total += v;
        }
        while (total > LIMIT) {
            total /= 2;
        }
        return total;
    }
}
`

func TestExtract_Method(t *testing.T) {
	e := NewExtractor()
	facts, err := e.Extract(context.Background(), []byte(sampleSource), "withdraw")
	require.NoError(t, err)

	require.Len(t, facts.Parameters, 1)
	assert.Equal(t, "amount", facts.Parameters[0].Name)
	assert.Equal(t, "long", facts.Parameters[0].Type)
	assert.True(t, facts.Parameters[0].Required)
	assert.Equal(t, "long", facts.ReturnType)

	// One guard throws, one returns early.
	assert.Len(t, facts.Guards, 2)
	require.Len(t, facts.EarlyReturns, 1)
	assert.Equal(t, "-1", facts.EarlyReturns[0])
	assert.Equal(t, 4, facts.Complexity)
	assert.True(t, facts.HasValidation())
}

func TestExtract_Loops(t *testing.T) {
	e := NewExtractor()
	facts, err := e.Extract(context.Background(), []byte(sampleSource), "sumAll")
	require.NoError(t, err)

	assert.Len(t, facts.Loops, 2)
	assert.Empty(t, facts.Guards)
	assert.Equal(t, 3, facts.Complexity)
}

func TestExtract_NotFound(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(context.Background(), []byte(sampleSource), "deposit")
	assert.Error(t, err)
}
