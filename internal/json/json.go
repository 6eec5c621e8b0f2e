// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package json provides internal JSON utilities.

package json

import (
	"github.com/segmentio/encoding/json"
)

// Unmarshal decodes data into v using segmentio/encoding/json, an
// allocation-lighter replacement for encoding/json that the rest of this
// module relies on for wire decoding. Unlike encoding/json, object keys are
// matched to struct field names and tags case-sensitively: a key that
// differs from a field only in letter case is ignored.
func Unmarshal(data []byte, v any) error {
	_, err := json.Parse(data, v, json.DontMatchCaseInsensitiveStructFields)
	return err
}

// Marshal encodes v using segmentio/encoding/json.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
