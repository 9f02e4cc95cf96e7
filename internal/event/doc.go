// Package event defines the build events consumed by the logger.
//
// Events form a closed set: every variant implements [Event] and is handled by
// exactly one handler, selected with a type switch.
//
// # Identity
//
// Every scoped event carries a [Context] made of node, project context,
// target and task ids. Maps keyed by scope use a [KeyFunc] to project the
// context to the granularity they care about:
//
//   - ByProject: node + project context
//   - ByTarget: node + project context + target
//   - ByEvent: all four ids
//
// # Event logs
//
// Recorded builds are stored as NDJSON or msgpack streams of {kind, event}
// records, see [Encoder] and [Decoder].
package event
