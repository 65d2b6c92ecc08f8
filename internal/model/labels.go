package model

import "fmt"

// Label identifies one of the skin conditions the classifier was trained on.
// The numeric value is the index of the class in the model's output vector.
type Label int

// Output order of the trained classifier. Changing it requires a new
// LabelOrderVersion and retrained artifacts.
const (
	Acne Label = iota
	DarkSpots
	Normal
	PuffyEyes
	Wrinkles
)

// NumLabels is the width of the classifier's probability vector.
const NumLabels = 5

// LabelOrderVersion versions the label ordering shared with the model artifacts.
const LabelOrderVersion = 1

var labelNames = [NumLabels]string{
	Acne:      "acne",
	DarkSpots: "dark spots",
	Normal:    "normal",
	PuffyEyes: "puffy eyes",
	Wrinkles:  "wrinkles",
}

// Labels returns every label in output order.
func Labels() []Label {
	labels := make([]Label, NumLabels)
	for i := range labels {
		labels[i] = Label(i)
	}
	return labels
}

// LabelNames returns the label identifiers in output order.
func LabelNames() []string {
	names := make([]string, NumLabels)
	copy(names, labelNames[:])
	return names
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l >= 0 && int(l) < NumLabels
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// ParseLabel maps an identifier such as "dark spots" back to its Label.
func ParseLabel(name string) (Label, error) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), nil
		}
	}
	return -1, fmt.Errorf("unknown label %q", name)
}
