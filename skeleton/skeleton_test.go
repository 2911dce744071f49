package skeleton

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeUnderRoot(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "top-level-node"), "", false))
	assert.Equal(t, []string{"n1"}, s.Root.ChildIDs)

	n, ok := s.Get("n1")
	require.True(t, ok)
	assert.Equal(t, "top-level-node", n.Title)
}

func TestAddNodeUnderParent(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "top-level-node"), "", false))
	require.NoError(t, s.AddNode(NewNode("n2", "child-node"), "n1", true))

	assert.Equal(t, []string{"n1"}, s.Root.ChildIDs, "child attaches to n1, not root")
	parent, ok := s.Get("n1")
	require.True(t, ok)
	assert.Equal(t, []string{"n2"}, parent.ChildIDs)
}

func TestAddNodeUnknownParentFails(t *testing.T) {
	s := New()
	err := s.AddNode(NewNode("n1", "orphan"), "does-not-exist", true)
	assert.ErrorIs(t, err, ErrNoSuchParent)
	_, ok := s.Get("n1")
	assert.False(t, ok, "store must not be mutated on failure")
}

func TestAddNodeSuppressesDuplicateChildIDs(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "a"), "", false))
	require.NoError(t, s.AddNode(NewNode("n1", "a-renamed"), "", false))
	assert.Equal(t, []string{"n1"}, s.Root.ChildIDs)
}

func TestSetNodeDoesNotTouchParentChildIDs(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "a"), "", false))
	s.SetNode(NewNode("n2", "b"))
	assert.Equal(t, []string{"n1"}, s.Root.ChildIDs)
	n, ok := s.Get("n2")
	require.True(t, ok)
	assert.Equal(t, "b", n.Title)
}

func TestGetByPath(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "top-level-node"), "", false))
	require.NoError(t, s.AddNode(NewNode("n2", "child-node"), "n1", true))

	got, ok := s.GetByPath("top")
	require.True(t, ok)
	assert.Equal(t, "n1", got.ID)

	got2, ok := s.GetByPath("top:chi")
	require.True(t, ok)
	assert.Equal(t, "n2", got2.ID)

	_, ok = s.GetByPath("nope")
	assert.False(t, ok)
}

func TestGetByPathNoMatch(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "abc"), "", false))
	_, ok := s.GetByPath("def")
	assert.False(t, ok)
}

func TestToListingRecursive(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "top"), "", false))
	require.NoError(t, s.AddNode(NewNode("n2", "child"), "n1", true))

	data, err := s.ToListing("", false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"root","title":"root","children":[{"id":"n1","title":"top","children":[{"id":"n2","title":"child","children":[]}]}]}`, string(data))
}

func TestToListingMissingChildFailsAllOrNothing(t *testing.T) {
	s := New()
	root := s.Root
	root.AddChild("ghost")
	s.Root = root

	_, err := s.ToListing("", false)
	assert.ErrorIs(t, err, ErrNoSuchNode)
}

func TestPersistenceRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(NewNode("n1", "top-level-node"), "", false))
	require.NoError(t, s.AddNode(NewNode("n2", "child-node"), "n1", true))

	path := filepath.Join(t.TempDir(), "blobs.bson")
	require.NoError(t, s.FlushToFile(path))

	loaded, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, s.Root, loaded.Root)
	assert.Equal(t, s.Nodes, loaded.Nodes)
}
