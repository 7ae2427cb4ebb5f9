package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// Version is a saved graph.
type Version struct {
	ID          string      `json:"id" bson:"_id"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	ContentHash string      `json:"content_hash" bson:"content_hash"`
	NodeCount   int         `json:"node_count" bson:"node_count"`
	EdgeCount   int         `json:"edge_count" bson:"edge_count"`
	Graph       graph.Graph `json:"graph" bson:"graph"`
}

// Summary is a Version without its graph, as returned by Store.List.
type Summary struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	ContentHash string    `json:"content_hash" bson:"content_hash"`
	NodeCount   int       `json:"node_count" bson:"node_count"`
	EdgeCount   int       `json:"edge_count" bson:"edge_count"`
}

// Summary returns v without its graph.
func (v *Version) Summary() Summary {
	return Summary{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		ContentHash: v.ContentHash,
		NodeCount:   v.NodeCount,
		EdgeCount:   v.EdgeCount,
	}
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// NewVersion validates name and snapshots g under a fresh ID. The graph is
// deep-copied, so later changes to g do not leak into the version.
func NewVersion(name, description string, g graph.Graph) (*Version, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidateVersionName(name); err != nil {
		return nil, err
	}
	if g.IsEmpty() {
		return nil, errors.New(errors.ErrCodeNoValidData, "cannot save an empty graph")
	}
	hash, err := cache.HashJSON(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	return &Version{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now(),
		ContentHash: hash,
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		Graph:       g.Clone(),
	}, nil
}

// Store persists versions. Implementations are safe for concurrent use.
type Store interface {
	// Save stores v, replacing any version with the same ID.
	Save(ctx context.Context, v *Version) error
	// Get returns the version with the given ID or an ErrCodeVersionNotFound
	// error.
	Get(ctx context.Context, id string) (*Version, error)
	// List returns all versions, newest first.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes a version or returns an ErrCodeVersionNotFound error.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Find resolves ref as a version ID, then as a version name. When several
// versions share a name the newest wins.
func Find(ctx context.Context, s Store, ref string) (*Version, error) {
	ref = strings.TrimSpace(ref)
	if errors.ValidateVersionID(ref) == nil {
		v, err := s.Get(ctx, ref)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, errors.ErrCodeVersionNotFound) {
			return nil, err
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range list {
		if sum.Name == ref {
			return s.Get(ctx, sum.ID)
		}
	}
	return nil, notFound(ref)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeVersionNotFound, "version %q not found", id)
}

func validate(v *Version) error {
	if v == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil version")
	}
	if err := errors.ValidateVersionID(v.ID); err != nil {
		return err
	}
	return errors.ValidateVersionName(v.Name)
}
