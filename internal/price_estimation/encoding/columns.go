package encoding

import "fmt"

// ColumnEncoder builds a feature vector from a row: every categorical column
// is one-hot encoded, in order, and the numeric columns are appended
// unchanged after them.
type ColumnEncoder struct {
	Categorical []string         `codec:"categorical"`
	Encoders    []*OneHotEncoder `codec:"encoders"`
	Passthrough []string         `codec:"passthrough"`
}

// FitColumns fits one encoder per categorical column. values[j] holds the
// training values of categorical[j].
func FitColumns(categorical []string, values [][]string, passthrough []string, handle HandleUnknown) (*ColumnEncoder, error) {
	if len(categorical) != len(values) {
		return nil, fmt.Errorf("column encoder: %d categorical columns but %d value lists", len(categorical), len(values))
	}

	enc := &ColumnEncoder{
		Categorical: append([]string(nil), categorical...),
		Encoders:    make([]*OneHotEncoder, len(categorical)),
		Passthrough: append([]string(nil), passthrough...),
	}
	for j := range categorical {
		enc.Encoders[j] = FitOneHot(values[j], handle)
	}
	return enc, nil
}

// Width is the length of the vectors Transform produces.
func (c *ColumnEncoder) Width() int {
	w := len(c.Passthrough)
	for _, e := range c.Encoders {
		w += e.Width()
	}
	return w
}

// Transform encodes one row. cats must follow the order of Categorical and
// nums the order of Passthrough.
func (c *ColumnEncoder) Transform(cats []string, nums []float64) ([]float64, error) {
	if len(cats) != len(c.Encoders) {
		return nil, fmt.Errorf("column encoder: got %d categorical values, want %d", len(cats), len(c.Encoders))
	}
	if len(nums) != len(c.Passthrough) {
		return nil, fmt.Errorf("column encoder: got %d numeric values, want %d", len(nums), len(c.Passthrough))
	}

	out := make([]float64, c.Width())
	off := 0
	for j, e := range c.Encoders {
		w := e.Width()
		if err := e.EncodeInto(out[off:off+w], cats[j]); err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Categorical[j], err)
		}
		off += w
	}
	copy(out[off:], nums)
	return out, nil
}

// FeatureNames labels every position of the vectors Transform produces.
func (c *ColumnEncoder) FeatureNames() []string {
	names := make([]string, 0, c.Width())
	for j, e := range c.Encoders {
		for _, cat := range e.Categories {
			names = append(names, c.Categorical[j]+"="+cat)
		}
	}
	return append(names, c.Passthrough...)
}
