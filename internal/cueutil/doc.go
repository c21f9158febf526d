// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema.
//
// Every CUE file customs reads goes through the same flow: compile the schema,
// compile the user data and unify it with a schema definition, then validate
// and decode. Errors carry the file name and the JSON path of the offending
// field, e.g. "config.cue: knobs.frontend_threads: invalid value 0".
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	cfg, err := cueutil.Decode[Config](schema, "#Config", data, cueutil.WithFilename(path))
package cueutil
