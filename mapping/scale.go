// Package mapping converts record values into visual channel values
// (colors, sizes, widths) from declarative scale specs.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// ScaleType selects the function used to map a value into the range.
type ScaleType string

const (
	Linear   ScaleType = "linear"
	Log      ScaleType = "log"
	Quantize ScaleType = "quantize"
	Ordinal  ScaleType = "ordinal"
)

// ErrInvalidScale is returned by Validate for specs that can never map a value.
var ErrInvalidScale = errors.New("invalid scale")

// Literal is a single range or unknown value. It is either a color
// ("#ff8800") or a number ("12.5"). JSON numbers and strings both decode
// into it so stored snapshots can use either form.
type Literal string

// UnmarshalJSON accepts a JSON string, number or null.
func (l *Literal) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*l = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("literal %s: %w", raw, err)
	}
	*l = Literal(raw)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (l *Literal) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("literal at line %d: expected a scalar", n.Line)
	}
	if n.Tag == "!!null" {
		*l = ""
		return nil
	}
	*l = Literal(n.Value)
	return nil
}

// Float returns the literal as a number.
func (l Literal) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(l)), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Scale declares how one visual channel is derived from a field.
type Scale struct {
	Field   string    `json:"field" yaml:"field"`
	Type    ScaleType `json:"scale" yaml:"scale"`
	Domain  []float64 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Range   []Literal `json:"range" yaml:"range"`
	Unknown Literal   `json:"unknown" yaml:"unknown"`
}

// Validate reports whether the scale is structurally usable.
func (s Scale) Validate() error {
	switch s.Type {
	case Ordinal:
		return nil
	case Linear, Log:
		if len(s.Domain) != 2 {
			return fmt.Errorf("%w: %s scale on %q needs a 2-element domain, got %d", ErrInvalidScale, s.Type, s.Field, len(s.Domain))
		}
		if len(s.Range) != 2 && len(s.Range) != 3 {
			return fmt.Errorf("%w: %s scale on %q needs a 2 or 3-element range, got %d", ErrInvalidScale, s.Type, s.Field, len(s.Range))
		}
	case Quantize:
		if len(s.Domain) != 2 {
			return fmt.Errorf("%w: quantize scale on %q needs a 2-element domain, got %d", ErrInvalidScale, s.Field, len(s.Domain))
		}
		if len(s.Range) == 0 {
			return fmt.Errorf("%w: quantize scale on %q has an empty range", ErrInvalidScale, s.Field)
		}
	default:
		return fmt.Errorf("%w: unknown scale type %q", ErrInvalidScale, s.Type)
	}
	return nil
}

// Apply maps a value to the channel. Fallbacks are checked in order:
// empty value, non-numeric value for a numeric scale, non-positive value
// for a log scale, and a scale function with no answer for the value.
// Each of them yields Unknown.
func (s Scale) Apply(v any) string {
	if isEmpty(v) {
		return string(s.Unknown)
	}
	if s.Type == Ordinal {
		return s.ordinal(v)
	}
	x, ok := Number(v)
	if !ok {
		return string(s.Unknown)
	}
	if s.Type == Log && x <= 0 {
		return string(s.Unknown)
	}
	var out Literal
	if s.Type == Quantize {
		out, ok = s.quantize(x)
	} else {
		out, ok = s.continuous(x)
	}
	if !ok {
		return string(s.Unknown)
	}
	return string(out)
}

// Float maps a value and parses the result as a number, for size and
// width channels.
func (s Scale) Float(v any) (float64, bool) {
	return Literal(s.Apply(v)).Float()
}

func (s Scale) ordinal(v any) string {
	x, ok := Number(v)
	if !ok || x < 0 || x != math.Trunc(x) || x >= float64(len(s.Range)) {
		return string(s.Unknown)
	}
	return string(s.Range[int(x)])
}

func (s Scale) quantize(x float64) (Literal, bool) {
	if len(s.Domain) < 2 || len(s.Range) == 0 {
		return "", false
	}
	x0, x1 := s.Domain[0], s.Domain[len(s.Domain)-1]
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if x1 == x0 {
		return "", false
	}
	n := len(s.Range)
	i := int(math.Floor((x - x0) / (x1 - x0) * float64(n)))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return s.Range[i], true
}

// pieces returns the domain/range pair of a piecewise scale, inserting
// the midpoint of the domain bounds when the range has three stops.
func (s Scale) pieces() ([]float64, []Literal) {
	if len(s.Domain) < 2 || len(s.Range) < 2 {
		return nil, nil
	}
	lo, hi := s.Domain[0], s.Domain[len(s.Domain)-1]
	dom := []float64{lo, hi}
	if len(s.Range) == 3 {
		dom = []float64{lo, (lo + hi) / 2, hi}
	}
	if len(dom) != len(s.Range) {
		return nil, nil
	}
	rng := append([]Literal(nil), s.Range...)
	if dom[0] > dom[len(dom)-1] {
		for i, j := 0, len(dom)-1; i < j; i, j = i+1, j-1 {
			dom[i], dom[j] = dom[j], dom[i]
			rng[i], rng[j] = rng[j], rng[i]
		}
	}
	return dom, rng
}

func (s Scale) continuous(x float64) (Literal, bool) {
	dom, rng := s.pieces()
	if dom == nil {
		return "", false
	}
	f := func(v float64) float64 { return v }
	if s.Type == Log {
		f = math.Log
	}
	// segment i spans dom[i]..dom[i+1]
	i := sort.SearchFloat64s(dom[1:len(dom)-1], x)
	if i < len(dom)-2 && dom[i+1] == x {
		i++
	}
	a, b := f(dom[i]), f(dom[i+1])
	t := (f(x) - a) / (b - a)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return "", false
	}
	t = math.Max(0, math.Min(1, t))
	return interpolate(rng[i], rng[i+1], t)
}

func interpolate(a, b Literal, t float64) (Literal, bool) {
	fa, okA := a.Float()
	fb, okB := b.Float()
	if okA && okB {
		return Literal(strconv.FormatFloat(fa+(fb-fa)*t, 'f', -1, 64)), true
	}
	ca, err := parseColor(a)
	if err != nil {
		return "", false
	}
	cb, err := parseColor(b)
	if err != nil {
		return "", false
	}
	return Literal(ca.BlendRgb(cb, t).Clamped().Hex()), true
}

func parseColor(l Literal) (colorful.Color, error) {
	s := strings.TrimSpace(string(l))
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return colorful.Hex(s)
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

// Number converts a record value to a float. Strings are parsed; NaN and
// non-numeric values report false.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
