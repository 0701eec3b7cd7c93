package preprocess

import "fmt"

// LabelEncoder maps labels to integer codes in first-seen order.
type LabelEncoder struct {
	column string
	codes  map[string]int
	labels []string
}

// FitLabels learns codes for every distinct label, in the order the labels
// first appear.
func FitLabels(column string, labels []string) *LabelEncoder {
	e := &LabelEncoder{
		column: column,
		codes:  make(map[string]int),
	}
	for _, l := range labels {
		if _, ok := e.codes[l]; ok {
			continue
		}
		e.codes[l] = len(e.labels)
		e.labels = append(e.labels, l)
	}
	return e
}

// Column returns the column the encoder was fitted on.
func (e *LabelEncoder) Column() string { return e.column }

// Classes returns the learned labels indexed by code.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out
}

// Len returns the number of learned labels.
func (e *LabelEncoder) Len() int { return len(e.labels) }

// Encode maps labels to codes. A label never seen at fit time is an error.
func (e *LabelEncoder) Encode(labels []string) ([]float64, error) {
	out := make([]float64, len(labels))
	for i, l := range labels {
		code, ok := e.codes[l]
		if !ok {
			return nil, fmt.Errorf("column %q: value %q: %w", e.column, l, ErrUnseenCategory)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// Decode maps codes back to their labels.
func (e *LabelEncoder) Decode(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		idx := int(c)
		if float64(idx) != c || idx < 0 || idx >= len(e.labels) {
			return nil, fmt.Errorf("column %q: code %v: %w", e.column, c, ErrUnknownCode)
		}
		out[i] = e.labels[idx]
	}
	return out, nil
}
