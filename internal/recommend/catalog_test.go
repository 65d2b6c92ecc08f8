package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/skinsense-api/internal/model"
)

func TestDefaultCatalogCoversEveryLabel(t *testing.T) {
	catalog := Default()

	seen := make(map[string]bool)
	for _, label := range model.Labels() {
		text := catalog.Lookup(label)
		assert.NotEmpty(t, text, label.String())
		assert.NotEqual(t, Fallback, text, label.String())
		assert.True(t, strings.HasPrefix(text, "Recommendation: "), label.String())
		seen[text] = true
	}
	assert.Len(t, seen, model.NumLabels)
}

func TestLookupUnknownLabel(t *testing.T) {
	catalog := Default()

	assert.Equal(t, Fallback, catalog.Lookup(model.Label(model.NumLabels)))
	assert.Equal(t, Fallback, catalog.Lookup(model.Label(-1)))
}

func TestNormalText(t *testing.T) {
	assert.Equal(t,
		"Recommendation: Your skin appears healthy and balanced! Maintain your routine with a daily cleanser, "+
			"moisturizer, and broad-spectrum sunscreen. Listen to your skin's needs and stay hydrated.",
		Default().Lookup(model.Normal))
}

func TestNewWithOverrides(t *testing.T) {
	t.Run("replaces named entries", func(t *testing.T) {
		catalog, err := New(map[string]string{"Dark Spots": "  Wear sunscreen.  "})

		require.NoError(t, err)
		assert.Equal(t, "Wear sunscreen.", catalog.Lookup(model.DarkSpots))
		assert.Equal(t, Default().Lookup(model.Acne), catalog.Lookup(model.Acne))
	})

	t.Run("rejects unknown label", func(t *testing.T) {
		_, err := New(map[string]string{"freckles": "text"})
		assert.ErrorContains(t, err, "unknown label")
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := New(map[string]string{"acne": "   "})
		assert.Error(t, err)
	})

	t.Run("does not leak into defaults", func(t *testing.T) {
		_, err := New(map[string]string{"wrinkles": "changed"})
		require.NoError(t, err)
		assert.NotEqual(t, "changed", Default().Lookup(model.Wrinkles))
	})
}
