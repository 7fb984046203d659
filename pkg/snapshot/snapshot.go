// Package snapshot persists tracker state. The default format is an
// LZ4-compressed YAML document; files ending in .json hold indented JSON.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// Version is the document format written by Encode.
const Version = 1

// filePerm is the mode used for snapshot files.
const filePerm = 0o600

// Sentinel errors.
var (
	// ErrUnsupportedVersion is returned when a snapshot was written by an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	// ErrCorruptSnapshot is returned when the stream is not a valid compressed snapshot.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// document is the on-disk layout.
type document struct {
	Version       int                `json:"version"        yaml:"version"`
	DefaultHeight float64            `json:"default_height" yaml:"default_height"`
	Ranges        []lineheight.Range `json:"ranges"         yaml:"ranges"`
}

func newDocument(snap lineheight.Snapshot) document {
	return document{Version: Version, DefaultHeight: snap.DefaultHeight, Ranges: snap.Ranges}
}

// snapshot checks the version and default height of a decoded document.
func (doc document) snapshot() (lineheight.Snapshot, error) {
	if doc.Version != Version {
		return lineheight.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	if doc.DefaultHeight <= 0 {
		return lineheight.Snapshot{}, fmt.Errorf("%w: default height %v", ErrCorruptSnapshot, doc.DefaultHeight)
	}

	return lineheight.Snapshot{DefaultHeight: doc.DefaultHeight, Ranges: doc.Ranges}, nil
}

// Codec reads and writes snapshots in one file format.
type Codec interface {
	Encode(w io.Writer, snap lineheight.Snapshot) error
	Decode(r io.Reader) (lineheight.Snapshot, error)
	// Extension is the file extension, dot included, that selects the codec.
	Extension() string
}

// CompressedCodec is the default LZ4 + YAML format.
type CompressedCodec struct{}

// Encode implements Codec.
func (CompressedCodec) Encode(w io.Writer, snap lineheight.Snapshot) error { return Encode(w, snap) }

// Decode implements Codec.
func (CompressedCodec) Decode(r io.Reader) (lineheight.Snapshot, error) { return Decode(r) }

// Extension implements Codec.
func (CompressedCodec) Extension() string { return ".lz4" }

// JSONCodec writes uncompressed, indented JSON for inspection and diffs.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(w io.Writer, snap lineheight.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(newDocument(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (JSONCodec) Decode(r io.Reader) (lineheight.Snapshot, error) {
	var doc document

	err := json.NewDecoder(r).Decode(&doc)
	if err != nil {
		return lineheight.Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	return doc.snapshot()
}

// Extension implements Codec.
func (JSONCodec) Extension() string { return ".json" }

// CodecFor picks the codec for path by extension, defaulting to CompressedCodec.
func CodecFor(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), JSONCodec{}.Extension()) {
		return JSONCodec{}
	}

	return CompressedCodec{}
}

// Encode writes snap to w.
func Encode(w io.Writer, snap lineheight.Snapshot) error {
	zw := lz4.NewWriter(w)

	enc := yaml.NewEncoder(zw)

	encErr := enc.Encode(newDocument(snap))
	if encErr != nil {
		return fmt.Errorf("encode snapshot: %w", encErr)
	}

	closeErr := enc.Close()
	if closeErr != nil {
		return fmt.Errorf("encode snapshot: %w", closeErr)
	}

	flushErr := zw.Close()
	if flushErr != nil {
		return fmt.Errorf("compress snapshot: %w", flushErr)
	}

	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (lineheight.Snapshot, error) {
	raw, readErr := io.ReadAll(lz4.NewReader(r))
	if readErr != nil {
		return lineheight.Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, readErr)
	}

	var doc document

	decodeErr := yaml.Unmarshal(raw, &doc)
	if decodeErr != nil {
		return lineheight.Snapshot{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, decodeErr)
	}

	return doc.snapshot()
}

// Marshal returns the encoded form of snap.
func Marshal(snap lineheight.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	err := Encode(&buf, snap)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile saves the tracker's committed state to path in the format
// CodecFor selects.
func WriteFile(path string, t *lineheight.Tracker) error {
	var buf bytes.Buffer

	err := CodecFor(path).Encode(&buf, t.Snapshot())
	if err != nil {
		return err
	}

	data := buf.Bytes()

	writeErr := os.WriteFile(path, data, filePerm)
	if writeErr != nil {
		return fmt.Errorf("write snapshot: %w", writeErr)
	}

	return nil
}

// ReadFile restores a tracker from path, decoding it with CodecFor.
func ReadFile(path string, opts ...lineheight.Option) (*lineheight.Tracker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := CodecFor(path).Decode(f)
	if err != nil {
		return nil, err
	}

	return lineheight.FromSnapshot(snap, opts...), nil
}
