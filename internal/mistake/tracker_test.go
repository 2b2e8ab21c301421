package mistake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

func TestTracker_Threshold(t *testing.T) {
	kinds := []model.MistakeType{
		model.MistakeCustomerTimeout,
		model.MistakeChangeAmount,
		model.MistakeFakeMoneyDetected,
		model.MistakeWrongProductInCheckout,
	}

	for max := 1; max <= 4; max++ {
		tr := NewTracker(max)
		for i := 0; i < max-1; i++ {
			_, err := tr.Add(kinds[i%len(kinds)], "oops", time.Duration(i)*time.Second)
			require.NoError(t, err)
		}
		assert.False(t, tr.GameOver(), "max %d: not over after %d mistakes", max, max-1)

		last := kinds[(max-1)%len(kinds)]
		_, err := tr.Add(last, "final", time.Minute)
		require.NoError(t, err)
		assert.True(t, tr.GameOver(), "max %d: over after %d mistakes", max, max)

		cause, ok := tr.Cause()
		require.True(t, ok)
		assert.Equal(t, last, cause.Type)
	}
}

func TestTracker_FrozenAfterGameOver(t *testing.T) {
	tr := NewTracker(1)

	_, err := tr.Add(model.MistakeCustomerTimeout, "late", 0)
	require.NoError(t, err)

	_, err = tr.Add(model.MistakeChangeAmount, "ignored", time.Second)
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Equal(t, 1, tr.Count())

	cause, _ := tr.Cause()
	assert.Equal(t, model.MistakeCustomerTimeout, cause.Type)
}

func TestTracker_LogIsCopy(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, DefaultMaxMistakes, tr.Max())

	m, err := tr.Add(model.MistakeBrandChangeDetected, "seen", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "seen", m.Detail)

	log := tr.Log()
	log[0].Detail = "changed"
	assert.Equal(t, "seen", tr.Log()[0].Detail)

	_, ok := tr.Cause()
	assert.False(t, ok)
}
