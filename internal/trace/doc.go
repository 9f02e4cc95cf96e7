// Package trace provides the structured side channel of the logger.
//
// Block boundaries, error and warning messages and build statistics are
// emitted as Events and written by a Tracer in one of two formats:
//
//   - FormatServiceMessage: TeamCity service messages, one per line
//   - FormatNDJSON: newline-delimited JSON
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when the structured stream is disabled
//   - Stream: immediate write to an io.Writer
//   - Ring: circular buffer of recent events, dumped when a handler fails
//   - Multi: combines multiple tracers
//
// A BlockWriter turns nested StartBlock/FinishBlock calls into
// blockOpened/blockClosed events tagged with the flow id of the build node
// that produced them:
//
//	blocks := trace.NewHierarchy(tracer, trace.NewFlowIDs(""))
//	blocks.StartBlock(node, "app.proj")
//	defer blocks.FinishBlock(node)
package trace
