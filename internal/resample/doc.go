// Package resample converts mono audio from the device's native rate to the
// recognition engine's rate.
//
// Converters follow a fixed-input contract: every Process call takes exactly
// ChunkFrames samples. Device callbacks deliver batches of arbitrary length, so
// callers feed converters through a Stager, a ring buffer that releases only
// complete chunks and carries the remainder into the next callback.
//
// Two converters are available:
//
//   - SincFixedIn: windowed-sinc interpolation over an oversampled kernel table,
//     pure Go, allocation free after construction.
//   - soxr.Converter: libsoxr through github.com/zaf/resample, wrapped to honour the same
//     fixed-input contract.
package resample
