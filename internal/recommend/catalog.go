package recommend

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/skinsense-api/internal/model"
)

// Fallback is returned for a label the catalog has no entry for.
const Fallback = "No specific recommendation available for this skin condition."

var defaults = map[model.Label]string{
	model.Acne: "Recommendation: Use a gentle, non-comedogenic cleanser. Avoid touching your face and consider " +
		"over-the-counter treatments with benzoyl peroxide or salicylic acid. For persistent cases, consult a dermatologist.",
	model.DarkSpots: "Recommendation: Use a daily sunscreen with SPF 30 or higher to prevent further hyperpigmentation. " +
		"Products containing Vitamin C, niacinamide, or retinoids can help fade existing spots. " +
		"Consult a dermatologist for professional treatments.",
	model.Normal: "Recommendation: Your skin appears healthy and balanced! Maintain your routine with a daily cleanser, " +
		"moisturizer, and broad-spectrum sunscreen. Listen to your skin's needs and stay hydrated.",
	model.PuffyEyes: "Recommendation: Get adequate sleep and reduce sodium intake. Applying a cool compress or an eye " +
		"cream with caffeine can help. Gently massage the area to improve circulation.",
	model.Wrinkles: "Recommendation: Use products with anti-aging ingredients like retinoids, peptides, and antioxidants. " +
		"Consistent sunscreen use is crucial to prevent further signs of aging. Stay hydrated and consider a healthy lifestyle.",
}

// Catalog maps each label to its advisory text. It is built once and never
// modified, so it is safe for concurrent use.
type Catalog struct {
	entries map[model.Label]string
}

// Default returns the catalog with the built-in texts.
func Default() *Catalog {
	c, _ := New(nil)
	return c
}

// New builds a catalog from the built-in texts, replacing any entry named in
// overrides. Override keys are label identifiers such as "dark spots".
func New(overrides map[string]string) (*Catalog, error) {
	entries := make(map[model.Label]string, model.NumLabels)
	for label, text := range defaults {
		entries[label] = text
	}

	for name, text := range overrides {
		label, err := model.ParseLabel(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, fmt.Errorf("recommendation override: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("recommendation override for %q is empty", name)
		}
		entries[label] = text
	}

	for _, label := range model.Labels() {
		if entries[label] == "" {
			return nil, fmt.Errorf("no recommendation for %q", label)
		}
	}

	return &Catalog{entries: entries}, nil
}

// Lookup returns the recommendation for label, or Fallback when the label is
// not one the classifier can produce.
func (c *Catalog) Lookup(label model.Label) string {
	if text, ok := c.entries[label]; ok {
		return text
	}
	return Fallback
}
