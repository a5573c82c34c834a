package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument converts a document to indented JSON bytes.
// Map keys are sorted by encoding/json, so output is deterministic.
func MarshalDocument(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocumentFile writes a document to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDocumentTo(doc, f)
}

// WriteDocument writes a document as JSON to an io.Writer.
func WriteDocument(doc Document, w io.Writer) error {
	return writeDocumentTo(doc, w)
}

// DecodeDocument decodes a document without validating it against the
// trace integrity rules. Use [ReadGraph] to decode and validate in one step.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "decode document")
	}
	return doc, nil
}

// ReadGraph decodes a JSON document and converts it into a validated graph.
func ReadGraph(r io.Reader) (*trace.Graph, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}
	return ToGraph(doc)
}

// ReadGraphFile reads a JSON document file and returns the validated graph.
func ReadGraphFile(path string) (*trace.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// MarshalGraph serializes a graph via [FromGraph]. The bytes are stable for
// equal graphs and are used as the content hash input for caching.
func MarshalGraph(g *trace.Graph) ([]byte, error) {
	return MarshalDocument(FromGraph(g))
}

func writeDocumentTo(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
