package encoding

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCategory is returned by encoders configured with
// HandleUnknownError when they meet a value they were not fitted on.
var ErrUnknownCategory = errors.New("unknown category")

// HandleUnknown selects what an encoder does with a category it has not seen.
type HandleUnknown string

const (
	// HandleUnknownIgnore encodes unseen categories as an all-zero block.
	HandleUnknownIgnore HandleUnknown = "ignore"
	// HandleUnknownError rejects unseen categories.
	HandleUnknownError HandleUnknown = "error"
)

// OneHotEncoder maps a category to a vector with a single 1 at the
// category's position. Categories are kept sorted.
type OneHotEncoder struct {
	Categories    []string      `codec:"categories"`
	HandleUnknown HandleUnknown `codec:"handle_unknown"`
}

// FitOneHot learns the distinct values of a column.
func FitOneHot(values []string, handle HandleUnknown) *OneHotEncoder {
	seen := make(map[string]struct{}, len(values))
	categories := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		categories = append(categories, v)
	}
	sort.Strings(categories)

	if handle == "" {
		handle = HandleUnknownIgnore
	}
	return &OneHotEncoder{Categories: categories, HandleUnknown: handle}
}

// Width is the length of the vectors this encoder produces.
func (e *OneHotEncoder) Width() int { return len(e.Categories) }

// Index returns the position of v, or -1 if v was not seen during fitting.
func (e *OneHotEncoder) Index(v string) int {
	i := sort.SearchStrings(e.Categories, v)
	if i < len(e.Categories) && e.Categories[i] == v {
		return i
	}
	return -1
}

// EncodeInto writes the encoding of v into dst, which must have length Width.
func (e *OneHotEncoder) EncodeInto(dst []float64, v string) error {
	if len(dst) != e.Width() {
		return fmt.Errorf("one-hot: destination has %d slots, encoder needs %d", len(dst), e.Width())
	}
	for i := range dst {
		dst[i] = 0
	}

	i := e.Index(v)
	if i < 0 {
		if e.HandleUnknown == HandleUnknownError {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, v)
		}
		return nil
	}
	dst[i] = 1
	return nil
}

// Encode returns the encoding of v as a new slice.
func (e *OneHotEncoder) Encode(v string) ([]float64, error) {
	out := make([]float64, e.Width())
	if err := e.EncodeInto(out, v); err != nil {
		return nil, err
	}
	return out, nil
}
