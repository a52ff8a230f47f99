// Package artifact persists fitted pipelines.
//
// An artifact is the four byte magic "CPP1" followed by the pipeline encoded
// as canonical msgpack, so encoding the same pipeline twice gives the same
// bytes.
package artifact

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ugorji/go/codec"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/estimator"
)

// Magic prefixes every artifact.
const Magic = "CPP1"

func handle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{WriteExt: true}
	h.Canonical = true
	return h
}

// Encode writes p to w.
func Encode(w io.Writer, p *estimator.Pipeline) error {
	if p == nil || p.Encoder == nil || p.Model == nil {
		return fmt.Errorf("encode artifact: %w", domain.ErrModelNotLoaded)
	}
	if _, err := io.WriteString(w, Magic); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := codec.NewEncoder(w, handle()).Encode(p); err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}
	return nil
}

// Decode reads a pipeline written by Encode.
func Decode(r io.Reader) (*estimator.Pipeline, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadArtifact, err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: magic %q", domain.ErrBadArtifact, magic)
	}

	var p estimator.Pipeline
	if err := codec.NewDecoder(r, handle()).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadArtifact, err)
	}
	if p.Encoder == nil || p.Model == nil || len(p.Model.Coef) != p.Encoder.Width() {
		return nil, fmt.Errorf("%w: incomplete pipeline", domain.ErrBadArtifact)
	}
	return &p, nil
}

// Marshal returns the artifact bytes of p.
func Marshal(p *estimator.Pipeline) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes artifact bytes.
func Unmarshal(b []byte) (*estimator.Pipeline, error) {
	return Decode(bytes.NewReader(b))
}

// Save writes p to path. The file is written next to path and renamed into
// place, so readers never observe a partial artifact.
func Save(path string, p *estimator.Pipeline) error {
	b, err := Marshal(p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Load reads the artifact at path.
func Load(path string) (*estimator.Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}
