package compiler

import (
	"github.com/mitchellh/mapstructure"
)

// artifactAttrs are the attributes of the wrapper tag.
// Pointer fields distinguish an absent attribute from an empty one.
type artifactAttrs struct {
	ID    *string `mapstructure:"id"`
	Title *string `mapstructure:"title"`
}

// actionAttrs are the attributes of an action tag.
type actionAttrs struct {
	Type     *string `mapstructure:"type"`
	FilePath *string `mapstructure:"filePath"`
}

// decodeAttrs maps raw attribute values onto a typed struct.
// Unknown attributes are ignored; decoding string maps into string fields cannot fail
// in practice, so any error degrades to the zero value.
func decodeAttrs(raw map[string]string, out any) {
	_ = mapstructure.Decode(raw, out)
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
