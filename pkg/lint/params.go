package lint

import (
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds the parameters of a rule.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Decode decodes the parameters into out, a pointer to a struct tagged with
// `mapstructure`. Values are converted weakly, so "200" fills an int field.
func (p Params) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(p))
}

// Int returns the parameter as an int.
func (p Params) Int(key string) (int, error) {
	var n int
	if err := p.decodeKey(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Float returns the parameter as a float64.
func (p Params) Float(key string) (float64, error) {
	var f float64
	if err := p.decodeKey(key, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// String returns the parameter as a string.
func (p Params) String(key string) (string, error) {
	var s string
	if err := p.decodeKey(key, &s); err != nil {
		return "", err
	}
	return s, nil
}

// Strings returns the parameter as a string slice.
func (p Params) Strings(key string) ([]string, error) {
	var s []string
	if err := p.decodeKey(key, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (p Params) decodeKey(key string, out any) error {
	v, ok := p[key]
	if !ok {
		return fmt.Errorf("unknown parameter %q", key)
	}
	if err := mapstructure.WeakDecode(v, out); err != nil {
		return fmt.Errorf("parameter %q: %w", key, err)
	}
	return nil
}
