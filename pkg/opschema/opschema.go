// Package opschema declares the JSON Schema for each operation's YAML
// parameters and validates decoded params against it before execution
// begins: each operation's parameters are validated against its
// declared schema before execution begins; unknown keys, missing required
// keys and type mismatches are parse-time errors").
//
// Grounded on gert's pkg/schema/validate.go semantic-validation phase:
// same compiler (santhosh-tekuri/jsonschema/v6), same
// AddResource/Compile/Validate/flatten pipeline.
package opschema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// stringOrArray is the recurring shape for "block" params, which may be a
// single path or an array of paths.
var stringOrArray = map[string]any{
	"oneOf": []any{
		map[string]any{"type": "string"},
		map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

func modeEnum() map[string]any {
	return map[string]any{"type": "string", "enum": []any{"append", "prepend", "replace"}}
}

// schemaDocs holds one JSON Schema object (as a Go value tree) per
// recognized operation name.
var schemaDocs = map[string]map[string]any{
	"import": {
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"file"},
		"properties": map[string]any{
			"file":     map[string]any{"type": "string", "minLength": 1},
			"block":    stringOrArray,
			"mode":     modeEnum(),
			"to":       map[string]any{"type": "string"},
			"run-once": map[string]any{"type": "boolean"},
		},
	},
	"shell": {
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"prompt"},
		"properties": map[string]any{
			"prompt":     map[string]any{"type": "string", "minLength": 1},
			"use-header": map[string]any{"type": "string"},
			"mode":       modeEnum(),
			"to":         map[string]any{"type": "string"},
			"run-once":   map[string]any{"type": "boolean"},
		},
	},
	"llm": {
		"type":                 "object",
		"additionalProperties": false,
		"anyOf": []any{
			map[string]any{"required": []any{"prompt"}},
			map[string]any{"required": []any{"block"}},
		},
		"properties": map[string]any{
			"prompt":          map[string]any{"type": "string"},
			"block":           stringOrArray,
			"media":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"provider":        map[string]any{"type": "string"},
			"model":           map[string]any{"type": "string"},
			"temperature":     map[string]any{"type": "number"},
			"stop-sequences":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"tools": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string", "enum": []any{"none", "all"}},
					map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
			"tools-turns-max": map[string]any{"type": "integer", "minimum": 1},
			"save-to-file":    map[string]any{"type": "string"},
			"use-header":      map[string]any{"type": "string"},
			"mode":            modeEnum(),
			"to":              map[string]any{"type": "string"},
			"run-once":        map[string]any{"type": "boolean"},
		},
	},
	"run": {
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"file"},
		"properties": map[string]any{
			"file":       map[string]any{"type": "string", "minLength": 1},
			"prompt":     map[string]any{"type": "string"},
			"block":      stringOrArray,
			"use-header": map[string]any{"type": "string"},
			"mode":       modeEnum(),
			"to":         map[string]any{"type": "string"},
			"run-once":   map[string]any{"type": "boolean"},
		},
	},
	"return": {
		"type":                 "object",
		"additionalProperties": false,
		"anyOf": []any{
			map[string]any{"required": []any{"prompt"}},
			map[string]any{"required": []any{"block"}},
		},
		"properties": map[string]any{
			"prompt":     map[string]any{"type": "string"},
			"block":      stringOrArray,
			"use-header": map[string]any{"type": "string"},
		},
	},
	"goto": {
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"block"},
		"properties": map[string]any{
			// A goto target is a simple id, never a hierarchical or
			// wildcard block path — those resolve to zero or many nodes,
			// which a jump target cannot be.
			"block":    map[string]any{"type": "string", "minLength": 1, "pattern": "^[^/*]+$"},
			"run-once": map[string]any{"type": "boolean"},
		},
	},
}

var compiled map[string]*sjsonschema.Schema

func init() {
	compiled = make(map[string]*sjsonschema.Schema, len(schemaDocs))
	for name, doc := range schemaDocs {
		c := sjsonschema.NewCompiler()
		resource := name + "-v0.json"
		if err := c.AddResource(resource, doc); err != nil {
			panic(fmt.Sprintf("opschema: add resource %s: %v", name, err))
		}
		sch, err := c.Compile(resource)
		if err != nil {
			panic(fmt.Sprintf("opschema: compile %s: %v", name, err))
		}
		compiled[name] = sch
	}
}

// Validate checks params against the declared schema for opName. A nil
// return means valid. Every failure is reported as a *ferr.Error of kind
// ParseError, matching the "parse-time errors" requirement.
func Validate(opName string, params map[string]any) error {
	sch, ok := compiled[opName]
	if !ok {
		return ferr.New(ferr.KindParse, "unknown operation %q", opName)
	}

	// Round-trip through JSON so map[string]any values decoded from YAML
	// (which can contain non-JSON-native types like map[any]any in older
	// yaml libraries; yaml.v3 already normalizes to map[string]any) match
	// what the validator expects.
	raw, err := json.Marshal(params)
	if err != nil {
		return ferr.Wrap(ferr.KindParse, err, "marshal operation params for validation")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ferr.Wrap(ferr.KindParse, err, "unmarshal operation params for validation")
	}

	if err := sch.Validate(doc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var msgs []string
			for _, cause := range flatten(ve) {
				path := strings.Join(cause.InstanceLocation, "/")
				msgs = append(msgs, fmt.Sprintf("%s: %v", path, cause.ErrorKind))
			}
			return ferr.New(ferr.KindParse, "@%s parameters: %s", opName, strings.Join(msgs, "; "))
		}
		return ferr.Wrap(ferr.KindParse, err, "@%s parameters", opName)
	}
	return nil
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var out []*sjsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, flatten(c)...)
	}
	return out
}
