package pipeline

import (
	"bytes"
	"fmt"
	"os"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	flowio "github.com/matzehuels/flowscope/pkg/io"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// Load decodes src in the given format ("" sniffs it) and validates the
// trace. An unnamed document takes name.
func Load(src []byte, format, name string) (*trace.Graph, error) {
	doc, err := flowio.ReadDocument(bytes.NewReader(src), format)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return graph.ToGraph(doc)
}

// readSource returns the raw trace bytes and their format.
func readSource(opts Options) ([]byte, string, error) {
	if len(opts.Source) > 0 {
		return opts.Source, opts.Format, nil
	}
	data, err := os.ReadFile(opts.Trace)
	if os.IsNotExist(err) {
		return nil, "", ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "open %s", opts.Trace)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", opts.Trace, err)
	}
	format := opts.Format
	if format == "" {
		format = flowio.FormatOf(opts.Trace)
	}
	return data, format, nil
}
