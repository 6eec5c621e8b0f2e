// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "reflect"

// Meta holds the protocol-reserved "_meta" object that may be attached to
// any request or notification params. Its only protocol-defined member is
// progressToken (spec.md §3); all other keys are passed through untouched.
type Meta map[string]any

// GetMeta returns the meta map, or nil if unset.
func (m Meta) GetMeta() Meta { return m }

const progressTokenKey = "progressToken"

// Params is implemented by every params type that can carry a progress
// token in its "_meta" object.
type Params interface {
	isParams()
	GetMeta() Meta
	GetProgressToken() any
	SetProgressToken(any)
}

// Every concrete params type embeds Meta as its first field; getProgressToken
// and setProgressToken use reflection to reach it generically rather than
// hand-writing a setter per type.

func metaField(p any) reflect.Value {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}
	}
	v = v.Elem()
	f := v.FieldByName("Meta")
	if !f.IsValid() || f.Type() != reflect.TypeOf(Meta(nil)) {
		return reflect.Value{}
	}
	return f
}

// getProgressToken extracts the progress token from a params value's _meta
// object, following spec.md §3's "params._meta.progressToken" convention.
func getProgressToken(p any) any {
	f := metaField(p)
	if !f.IsValid() {
		return nil
	}
	meta, _ := f.Interface().(Meta)
	if meta == nil {
		return nil
	}
	return meta[progressTokenKey]
}

// setProgressToken attaches a progress token to a params value's _meta
// object, creating the map if necessary.
func setProgressToken(p any, token any) {
	f := metaField(p)
	if !f.IsValid() {
		return
	}
	meta, _ := f.Interface().(Meta)
	if meta == nil {
		meta = make(Meta)
	}
	meta[progressTokenKey] = token
	f.Set(reflect.ValueOf(meta))
}

// Result is implemented by every result type returned from a request
// handler, closing the set of legal results the same way Params closes the
// set of legal params.
type Result interface {
	isResult()
}
