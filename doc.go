// Package skemata provides:
//
// - A closed, recursive Schema model (primitives, optional, tuple, sequence,
//   map, set, either, record, enumeration, lazy, transform, dynamic)
// - Structural encode/decode against a streaming JSON wire via jsoncodec
// - Wire-shape annotations resolved at walk time (names, aliases,
//   discriminators, transient members, omission, defaults, strict records)
// - A stable error model via Issues (JSON Pointer, code, message)
// - A meta-schema: MetaSchema/SchemaToAST/ASTToSchema ship schemas themselves
//   over the same wire
//
// Design policy:
// - Keep only public contracts in the root package; token plumbing and input
//   enforcement live under internal/engine.
// - Place wire walks under jsoncodec/, transform constructors under codec/,
//   and pluggable input drivers under source/.
// - No reflection: records and enumerations carry explicit Get/Set and
//   Wrap/Unwrap capabilities.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := buildSchema()
//	v, err := jsoncodec.Decode(ctx, s, data)
//	out, err := jsoncodec.Encode(ctx, s, v)
package skemata
