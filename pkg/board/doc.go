// Package board defines the file and wire formats of trailmap.
//
// Two documents exist:
//
//   - [Steps]: the input, an ordered list of steps with their status as
//     reported by the learning backend, plus optional marker images. Read
//     from JSON or YAML and validated against an embedded JSON Schema.
//   - [Layout]: the output, a computed path with node and marker
//     coordinates. Written as indented JSON. Fields carry bson tags so the
//     document can be stored as-is in MongoDB.
//
// Conversions to and from the engine types live here so that
// [trail] stays free of serialization concerns.
//
// [trail]: github.com/matzehuels/trailmap/pkg/core/trail
package board
