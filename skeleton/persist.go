package skeleton

import (
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson"
)

// document is the BSON-serializable shape of a Skeleton. It mirrors
// Skeleton's Root/Nodes fields without the mutex, which has no business
// being marshaled.
type document struct {
	Root  Node            `bson:"root"`
	Nodes map[string]Node `bson:"nodes"`
}

// FlushToFile writes a BSON serialization of the whole handle to path. The
// persistence format is otherwise implementation-defined; only round-trip
// equality with FromFile is required.
func (s *Skeleton) FlushToFile(path string) error {
	s.mu.RLock()
	doc := document{Root: s.Root, Nodes: s.Nodes}
	s.mu.RUnlock()

	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("skeleton: marshal bson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("skeleton: write %s: %w", path, err)
	}
	return nil
}

// FromFile reads and decodes a Skeleton previously written by FlushToFile.
func FromFile(path string) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skeleton: read %s: %w", path, err)
	}

	var doc document
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("skeleton: unmarshal bson: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = make(map[string]Node)
	}
	return &Skeleton{Root: doc.Root, Nodes: doc.Nodes}, nil
}
