// Package core reshapes long survey tables into wide ones.
//
// A long table has one row per observation:
//
//	userId,question,questionType,answer
//	10,DOB,pullDown,1983
//	10,gender,radio,F
//	20,DOB,pullDown,1980
//	20,gender,radio,M
//
// Unfolding on question (pivot) and answer (payload) with questionType
// declared constant yields one row per question:
//
//	question,questionType,v0,v1
//	DOB,pullDown,1983,1980
//	gender,radio,F,M
//
// # Sources and Sinks
//
// Input comes from a [Source]: [FromPath] and [FromReader] parse CSV,
// [FromRows] takes an in-memory table, [FromQuery] runs a PostgreSQL query.
// Output goes to a [Sink]: [ToSequence] returns a one-shot [Rows] cursor,
// [ToStream] and [ToPath] write CSV with CRLF line endings.
//
// # Guarantees
//
//   - Output rows follow the first-seen order of pivot values.
//   - A constant column must hold a single value within each pivot group;
//     a second value fails the call with [ErrInconsistentConstant].
//   - Groups shorter than the widest are right-padded with [DefaultFiller].
//   - Payload columns are named v0, v1, ... unless [WithNewColumnNamesFrom]
//     supplies a naming column, whose distinct values become the headers.
//
// All state lives in a builder created per call, so separate calls may run
// concurrently. A single call is sequential; the row visit order fixes
// the output order.
//
// # Error Handling
//
// Failures wrap one of [ErrInvalidArgument], [ErrUnknownColumn],
// [ErrRowHeaderMismatch], [ErrInconsistentConstant] or [ErrIO]. [MapError]
// turns them into coded user messages for the CLI and HTTP surfaces.
package core
