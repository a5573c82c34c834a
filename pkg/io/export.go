package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/render/scene"
)

// ExportDocument writes doc to path as network text when the extension
// asks for it, and as JSON otherwise.
func ExportDocument(doc graph.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if FormatOf(path) == FormatNetwork {
		return WriteNetwork(doc, f)
	}
	return graph.WriteDocument(doc, f)
}

// WriteScene encodes a frame scene as indented JSON.
func WriteScene(sc *scene.Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}
