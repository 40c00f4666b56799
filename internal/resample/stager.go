package resample

import "log/slog"

// Stager accumulates mono samples of any batch length and releases them in
// chunks of exactly the converter's input size. The remainder stays in the
// ring and is released once later writes complete it.
//
// A Stager has a single owner: the device callback while the stream runs,
// the session loop while it is paused.
type Stager struct {
	arena   []float32
	r, w    int // read and write indices into arena
	n       int // buffered samples
	chunk   int
	scratch []float32 // contiguous copy of a chunk that wraps the arena end
}

// NewStager creates a stager for chunk-sized output with room for at least
// capacity buffered samples.
func NewStager(chunk, capacity int) *Stager {
	if capacity < 2*chunk {
		capacity = 2 * chunk
	}
	return &Stager{
		arena:   make([]float32, capacity),
		chunk:   chunk,
		scratch: make([]float32, chunk),
	}
}

// Write appends samples to the ring, growing the arena if a batch does not fit.
func (s *Stager) Write(samples []float32) {
	if s.n+len(samples) > len(s.arena) {
		s.grow(s.n + len(samples))
	}
	for len(samples) > 0 {
		k := copy(s.arena[s.w:], samples)
		samples = samples[k:]
		s.n += k
		s.w = (s.w + k) % len(s.arena)
	}
}

// grow linearises the buffered samples into a larger arena. Only reached when a
// callback delivers more frames than the arena was sized for.
func (s *Stager) grow(need int) {
	size := 2 * len(s.arena)
	for size < need {
		size *= 2
	}
	arena := make([]float32, size)
	s.copyOut(arena[:s.n])
	slog.Warn("staging buffer grown", "from", len(s.arena), "to", size)
	s.arena = arena
	s.r = 0
	s.w = s.n
}

// copyOut copies the first len(dst) buffered samples into dst without consuming them.
func (s *Stager) copyOut(dst []float32) {
	k := copy(dst, s.arena[s.r:])
	if k < len(dst) {
		copy(dst[k:], s.arena)
	}
}

// Next returns the next complete chunk. The slice aliases internal storage and is
// valid until the following Write or Next.
func (s *Stager) Next() ([]float32, bool) {
	if s.n < s.chunk {
		return nil, false
	}
	var out []float32
	if s.r+s.chunk <= len(s.arena) {
		out = s.arena[s.r : s.r+s.chunk]
	} else {
		s.copyOut(s.scratch)
		out = s.scratch
	}
	s.r = (s.r + s.chunk) % len(s.arena)
	s.n -= s.chunk
	return out, true
}

// Residual is the number of samples carried into the next write.
func (s *Stager) Residual() int { return s.n }

// Chunk returns the release size.
func (s *Stager) Chunk() int { return s.chunk }

// Reset discards buffered samples.
func (s *Stager) Reset() {
	s.r, s.w, s.n = 0, 0, 0
}

// Staged pairs a Stager with the Converter it feeds.
type Staged struct {
	stager *Stager
	conv   Converter
	out    []float32
}

// NewStaged creates a staged converter able to take batches of up to maxBatch
// frames without growing.
func NewStaged(conv Converter, maxBatch int) *Staged {
	return &Staged{
		stager: NewStager(conv.ChunkFrames(), maxBatch+conv.ChunkFrames()),
		conv:   conv,
		out:    make([]float32, 0, conv.MaxOutputFrames()),
	}
}

// Feed stages mono and converts every complete chunk, calling emit with each
// converted batch in order. emit must not retain the slice. Returns the number
// of chunks converted.
func (s *Staged) Feed(mono []float32, emit func([]float32)) (int, error) {
	s.stager.Write(mono)
	chunks := 0
	for {
		chunk, ok := s.stager.Next()
		if !ok {
			return chunks, nil
		}
		out, err := s.conv.Process(s.out, chunk)
		if err != nil {
			return chunks, err
		}
		s.out = out
		chunks++
		emit(out)
	}
}

// Residual is the number of staged samples waiting for a complete chunk.
func (s *Staged) Residual() int { return s.stager.Residual() }

// Reset clears staged samples and converter history.
func (s *Staged) Reset() {
	s.stager.Reset()
	s.conv.Reset()
}

// MaxOutputPerBatch bounds the samples produced by one Feed of batch frames.
func MaxOutputPerBatch(conv Converter, batch int) int {
	chunk := conv.ChunkFrames()
	// At most chunk-1 samples are carried in from the previous batch.
	chunks := (chunk - 1 + batch) / chunk
	return chunks * conv.MaxOutputFrames()
}
