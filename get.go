// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package hose

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

type noValue struct{}

// String implements the fmt.Stringer interface.
func (noValue) String() string {
	return "<no value>"
}

// NoValue is returned by Get in silent mode for a declared variable which
// is not available.
var NoValue any = noValue{}

// Get returns the raw value resolved for key.
//
// An unavailable key is an UnavailableKeyError, unless the definition's
// error_mode is silent, in which case NoValue is returned instead.
func (h *Hose) Get(key string) (any, error) {
	if strings.TrimSpace(key) == "" {
		return nil, InvalidKeyError{Key: key}
	}

	entry, declared := h.engine.Lookup(key)
	if !declared {
		return nil, UndeclaredKeyError{Key: key}
	}
	if entry.Available {
		return entry.Value, nil
	}
	if h.Silent() {
		return NoValue, nil
	}
	return nil, UnavailableKeyError{Key: key, Pending: h.engine.Pending()}
}

// Unmarshal decodes every available value into v, which should be a
// pointer to a struct. Fields are matched by their config tag, or their
// name, case insensitively. Unavailable variables leave their fields
// untouched regardless of error mode.
//
// Values are weakly typed, so "5432" and 5432 both decode into an int
// field. Strings decode into time.Duration fields and into any type
// implementing encoding.TextUnmarshaler.
func (h *Hose) Unmarshal(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return UnmarshalError{Cause: err}
	}

	err = dec.Decode(h.engine.Values())
	if err != nil {
		return UnmarshalError{Cause: err}
	}
	return nil
}
