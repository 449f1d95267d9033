package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/mcspace/internal/particle"
	"github.com/san-kum/mcspace/internal/space"
)

// ErrParticleCount is returned when a stored state does not match the
// particle store it is loaded into.
var ErrParticleCount = space.ErrParticleCount

// State is the persisted form of a space: the container volume and every
// particle, active or not, in store order.
type State struct {
	Volume    float64         `json:"volume"`
	Particles particle.Vector `json:"particles"`
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// compressor picks the stream format from the file extension: .gz is
// gzip, .zst is zstd and anything else is plain JSON.
func compressor(path string, w io.Writer) (io.WriteCloser, error) {
	switch filepath.Ext(path) {
	case ".gz":
		return gzip.NewWriter(w), nil
	case ".zst":
		return zstd.NewWriter(w)
	default:
		return nopWriteCloser{w}, nil
	}
}

func decompressor(path string, r io.Reader) (io.ReadCloser, error) {
	switch filepath.Ext(path) {
	case ".gz":
		return gzip.NewReader(r)
	case ".zst":
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	default:
		return io.NopCloser(r), nil
	}
}

// SaveState writes the particles and volume of spc as JSON.
func SaveState(path string, spc *space.Space) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w, err := compressor(path, f)
	if err != nil {
		f.Close()
		return err
	}
	st := State{Volume: spc.Geo.Volume(), Particles: spc.Particles}
	if err := json.NewEncoder(w).Encode(st); err != nil {
		f.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadState(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompressor(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	var st State
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &st, nil
}

// Restore loads path into spc. The particle count must match exactly;
// a stored volume replaces the container volume.
func Restore(path string, spc *space.Space) error {
	st, err := LoadState(path)
	if err != nil {
		return err
	}
	if len(st.Particles) != len(spc.Particles) {
		return fmt.Errorf("%s: %w: have %d, file has %d", path, ErrParticleCount, len(spc.Particles), len(st.Particles))
	}
	if st.Volume > 0 {
		if _, err := spc.Geo.SetVolume(st.Volume); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return spc.Restore(st.Particles)
}
