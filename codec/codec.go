// Package codec marshals component values for the inspector surface.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Encode marshals a component value to JSON.
func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "component value is not json serializable")
	}
	return bz, nil
}

// Decode unmarshals JSON into a fresh T.
func Decode[T any](bz []byte) (T, error) {
	value := new(T)
	if err := json.Unmarshal(bz, value); err != nil {
		return *value, eris.Wrap(err, "cannot decode component value")
	}
	return *value, nil
}
