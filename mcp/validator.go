// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// A Validator checks an already-decoded JSON value against a resolved JSON
// Schema, applying schema defaults in place. Handlers that accept
// structured params beyond this core's fixed lifecycle types (an
// extension's request, for instance) can use a Validator to enforce their
// own schema before acting on the data.
type Validator interface {
	// Validate checks data against schema, applying any defaults the schema
	// declares directly into data.
	Validate(data *map[string]any, schema *jsonschema.Resolved) error
}

// SchemaValidationError reports a failure to validate or apply defaults to
// data against a schema.
type SchemaValidationError struct {
	Operation string
	Schema    *jsonschema.Schema
	Data      json.RawMessage
	Cause     error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("mcp: schema validation failed during %s: %v", e.Operation, e.Cause)
}

func (e *SchemaValidationError) Unwrap() error { return e.Cause }

// DefaultValidator is the Validator this package provides: it applies
// schema-declared defaults and then validates the result, using
// jsonschema-go's resolved-schema evaluator.
type DefaultValidator struct{}

// Validate implements Validator.
func (DefaultValidator) Validate(data *map[string]any, schema *jsonschema.Resolved) error {
	if schema == nil {
		return nil
	}
	if err := schema.ApplyDefaults(data); err != nil {
		return &SchemaValidationError{Operation: "apply_defaults", Schema: schema.Schema(), Cause: err}
	}
	if err := schema.Validate(*data); err != nil {
		return &SchemaValidationError{Operation: "validate", Schema: schema.Schema(), Cause: err}
	}
	return nil
}

// ValidateRaw decodes raw as a JSON object, runs it through v, and
// re-encodes the (possibly defaulted) result.
func ValidateRaw(v Validator, raw json.RawMessage, schema *jsonschema.Resolved) (json.RawMessage, error) {
	if schema == nil || len(raw) == 0 {
		return raw, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &SchemaValidationError{Operation: "decode", Data: raw, Cause: err}
	}
	if err := v.Validate(&data, schema); err != nil {
		return nil, err
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, &SchemaValidationError{Operation: "encode", Cause: err}
	}
	return out, nil
}
