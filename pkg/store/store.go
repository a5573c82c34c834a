// Package store keeps uploaded traces.
//
// Traces are stored as [graph.Document] values together with a content
// hash, so uploading the same trace twice returns the existing record.
// [FileStore] keeps one JSON file per trace for single-host use;
// [MongoStore] keeps them in MongoDB for servers that scale out.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/cache"
	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/trace"
)

// ErrNotFound is returned when no trace has the requested id.
var ErrNotFound = errors.New("trace not found")

// Summary describes a stored trace without its frames.
type Summary struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name,omitempty" bson:"name,omitempty"`
	Hash       string    `json:"hash" bson:"hash"`
	NodeCount  int       `json:"node_count" bson:"node_count"`
	EdgeCount  int       `json:"edge_count" bson:"edge_count"`
	FrameCount int       `json:"frame_count" bson:"frame_count"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Trace is a stored trace document.
type Trace struct {
	Summary  `bson:",inline"`
	Document graph.Document `json:"document" bson:"document"`
}

// Graph builds the runtime graph of the stored document.
func (t *Trace) Graph() (*trace.Graph, error) {
	return graph.ToGraph(t.Document)
}

// Store persists traces.
type Store interface {
	// Put validates and stores doc. A document with the same content as a
	// stored one returns the stored record.
	Put(ctx context.Context, doc graph.Document) (*Trace, error)

	// Get returns the trace with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Trace, error)

	// List returns all stored traces, oldest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a trace, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close(ctx context.Context) error
}

// NewTrace validates doc and wraps it in a fresh record.
func NewTrace(doc graph.Document) (*Trace, error) {
	g, err := graph.ToGraph(doc)
	if err != nil {
		return nil, err
	}
	data, err := graph.MarshalDocument(doc)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "encode trace")
	}
	return &Trace{
		Summary: Summary{
			ID:         uuid.NewString(),
			Name:       doc.Name,
			Hash:       cache.Hash(data),
			NodeCount:  g.NodeCount(),
			EdgeCount:  g.EdgeCount(),
			FrameCount: g.FrameCount(),
			CreatedAt:  time.Now().UTC(),
		},
		Document: doc,
	}, nil
}

// notFound wraps ErrNotFound with the TRACE_NOT_FOUND code.
func notFound(id string) error {
	return ferrors.Wrap(ferrors.ErrCodeTraceNotFound, ErrNotFound, "trace %s", id)
}
