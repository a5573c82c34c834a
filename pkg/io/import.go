package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
)

// Input formats.
const (
	FormatJSON    = "json"
	FormatNetwork = "network"
)

// FormatOf returns the format implied by a file extension, or "" when the
// extension says nothing.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".txt", ".net", ".flow":
		return FormatNetwork
	default:
		return ""
	}
}

// Sniff guesses the format of data: JSON documents start with "{".
func Sniff(data []byte) string {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatNetwork
}

// ReadDocument decodes r in the given format; "" sniffs it.
func ReadDocument(r io.Reader, format string) (graph.Document, error) {
	br := bufio.NewReader(r)
	if format == "" {
		peek, _ := br.Peek(512)
		format = Sniff(peek)
	}
	switch format {
	case FormatJSON:
		return graph.DecodeDocument(br)
	case FormatNetwork:
		return ReadNetwork(br)
	default:
		return graph.Document{}, ferrors.New(ferrors.ErrCodeInvalidFormat, "unknown input format %q", format)
	}
}

// ImportDocument reads a trace or network file. Documents without a name
// are named after the file.
func ImportDocument(path string) (graph.Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return graph.Document{}, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return graph.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := ReadDocument(f, FormatOf(path))
	if err != nil {
		return graph.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}
