// Package metrics exposes Prometheus instrumentation for the producer callback,
// the utterance segmenter and the transcription invoker.
//
// Metrics are registered on a caller-supplied registry so that the HTTP surface
// can serve exactly this process's collectors and tests can use a fresh registry.
package metrics
