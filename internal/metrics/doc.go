// Package metrics provides observability hooks for compile runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks in the
// pipeline. Watch mode swaps in the Prometheus implementation and serves it
// over HTTP; one-shot commands keep the noop.
package metrics
