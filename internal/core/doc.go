// Package core runs the ingest pipeline: an uploaded file is normalized
// into a dataset, cleaned, and written to the store the caller picked.
//
// It is independent of any transport; the web handlers and the dbroute CLI
// both call [Service.Ingest].
//
// # Pipeline
//
//  1. The source format comes from [Request.SourceKind] or the file extension.
//  2. [normalize.Normalize] builds the dataset; malformed input fails with a
//     *normalize.FormatError before any store is contacted.
//  3. [clean.Clean] drops empty rows and turns every cell into text.
//  4. [sink.Dispatch] resolves the target and validates its settings.
//  5. The sink writes the rows and reports inserted and failed counts.
//
// # Concurrency
//
// A [Limiter] caps the number of ingests held in memory at once, and every
// ingest runs under the configured upload timeout.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages with [MapError].
// See error_messages.go for the code reference.
package core
