package courseio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Import rejections. The texts are shown to authors verbatim.
var (
	ErrInvalidStructure      = errors.New("Invalid JSON structure")
	ErrMissingTitleOrModules = errors.New("Course must have title and modules")
	ErrModulesNotArray       = errors.New("Modules must be an array")
)

// The checks run in order; the first failing schema decides the error.
// A title or modules value of null, "", 0 or false counts as missing.
const (
	objectSchema = `{"type": "object"}`

	presenceSchema = `{
		"required": ["title", "modules"],
		"properties": {
			"title":   {"not": {"enum": [null, "", 0, false]}},
			"modules": {"not": {"enum": [null, "", 0, false]}}
		}
	}`

	modulesSchema = `{"properties": {"modules": {"type": "array"}}}`
)

type check struct {
	schema *gojsonschema.Schema
	err    error
}

var checks = mustChecks(
	objectSchema, ErrInvalidStructure,
	presenceSchema, ErrMissingTitleOrModules,
	modulesSchema, ErrModulesNotArray,
)

func mustChecks(pairs ...any) []check {
	out := make([]check, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(pairs[i].(string)))
		if err != nil {
			panic(fmt.Sprintf("courseio: compile schema %d: %v", i/2, err))
		}
		out = append(out, check{schema: s, err: pairs[i+1].(error)})
	}
	return out
}

// Validate checks that raw is a JSON course document an import can accept.
func Validate(raw []byte) error {
	doc, err := decodeJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return validateDoc(doc)
}

func validateDoc(doc any) error {
	loader := gojsonschema.NewGoLoader(doc)
	for _, c := range checks {
		res, err := c.schema.Validate(loader)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
		}
		if !res.Valid() {
			return c.err
		}
	}
	return nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after document")
	}
	return doc, nil
}
