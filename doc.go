// Package rbranch decodes the binary payloads of ROOT branches whose
// streamers the generic reader cannot handle: overridden Streamer methods,
// deeply nested STL combinations, memberwise-stored containers, and C-style
// arrays of non-trivial elements.
//
// The input to a decode is the branch's concatenated event bytes plus a
// per-event offset table; the output is columnar (flat arrays and offset
// vectors) rather than an object graph.  A reader tree describing the
// branch's layout drives the decode; trees are assembled by hand from the
// reader package's variants or built from streamer information by the schema
// package.  The arrowio package converts results to Arrow arrays and the
// basket package inflates compressed basket blobs into decodable form.
package rbranch
