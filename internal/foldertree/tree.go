// Package foldertree builds the folder hierarchy from the flat list the
// backend returns and tracks which branches are expanded.
package foldertree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/distrohub/mediadesk/internal/models"
)

// ErrCycle is returned when parent links loop back on themselves.
var ErrCycle = errors.New("folder hierarchy contains a cycle")

// RootName is the display name of the synthetic root.
const RootName = "All Media"

// Node is one folder in the tree.
type Node struct {
	ID       string
	Name     string
	ParentID string // as sent by the backend
	Children []*Node

	// Detached is set on folders hung off the root because their parent is
	// unknown or they sit on a cycle.
	Detached bool

	parent *Node
}

// Parent returns the node this one is displayed under (nil for the root).
func (n *Node) Parent() *Node {
	return n.parent
}

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Tree is an immutable folder hierarchy under a synthetic root.
type Tree struct {
	root     *Node
	byID     map[string]*Node
	parentOf map[string]string
	detached []*Node
	count    int
}

// Build groups folders by ParentID under a synthetic root, keeping the input
// order among siblings. Every folder becomes exactly one node, so Count
// equals len(folders).
func Build(folders []models.Folder) *Tree {
	t := &Tree{
		root:     &Node{ID: models.RootFolderID, Name: RootName},
		byID:     make(map[string]*Node, len(folders)),
		parentOf: make(map[string]string, len(folders)),
	}

	nodes := make([]*Node, len(folders))
	for i, f := range folders {
		parentID := f.ParentID
		if parentID == "" {
			parentID = models.RootFolderID
		}
		n := &Node{ID: f.ID, Name: f.Name, ParentID: parentID}
		nodes[i] = n
		if _, dup := t.byID[f.ID]; !dup {
			t.byID[f.ID] = n
			t.parentOf[f.ID] = parentID
		}
	}

	for _, n := range nodes {
		parent := t.root
		if n.ParentID != models.RootFolderID {
			p, known := t.byID[n.ParentID]
			switch {
			case !known, p == n, t.onCycle(n.ID):
				n.Detached = true
				t.detached = append(t.detached, n)
			default:
				parent = p
			}
		}
		n.parent = parent
		parent.Children = append(parent.Children, n)
	}
	t.count = len(nodes)
	return t
}

// onCycle reports whether following parent links from id leads back to id.
func (t *Tree) onCycle(id string) bool {
	seen := map[string]bool{}
	cur := t.parentOf[id]
	for cur != models.RootFolderID {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false // a cycle further up that id is not part of
		}
		seen[cur] = true
		next, ok := t.parentOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Count returns the number of folders (the root is not counted).
func (t *Tree) Count() int {
	return t.count
}

// Detached returns folders attached to the root in place of their parent.
func (t *Tree) Detached() []*Node {
	return append([]*Node(nil), t.detached...)
}

// Find returns the node for id. The root is found by models.RootFolderID.
func (t *Tree) Find(id string) (*Node, bool) {
	if id == "" || id == models.RootFolderID {
		return t.root, true
	}
	n, ok := t.byID[id]
	return n, ok
}

// Children returns the direct children of id.
func (t *Tree) Children(id string) []*Node {
	n, ok := t.Find(id)
	if !ok {
		return nil
	}
	return n.Children
}

// Walk visits nodes depth-first in display order, starting with the root's
// children at depth 0. Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.root.Children, 0)
}

// Ancestors returns the ids from the root down to id's parent, following
// the backend's parent links. A link that revisits a folder yields ErrCycle;
// an unknown parent ends the chain.
func (t *Tree) Ancestors(id string) ([]string, error) {
	if id == "" || id == models.RootFolderID {
		return nil, nil
	}
	parentID, ok := t.parentOf[id]
	if !ok {
		return nil, fmt.Errorf("unknown folder %q", id)
	}

	var chain []string
	seen := map[string]bool{id: true}
	for parentID != models.RootFolderID {
		if seen[parentID] {
			return nil, fmt.Errorf("%w at %q", ErrCycle, parentID)
		}
		seen[parentID] = true
		chain = append(chain, parentID)
		next, known := t.parentOf[parentID]
		if !known {
			break
		}
		parentID = next
	}
	chain = append(chain, models.RootFolderID)

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// IsDescendant reports whether id lies below ancestorID. Everything is
// below the root.
func (t *Tree) IsDescendant(id, ancestorID string) bool {
	if id == ancestorID {
		return false
	}
	if ancestorID == "" || ancestorID == models.RootFolderID {
		_, ok := t.byID[id]
		return ok
	}
	chain, err := t.Ancestors(id)
	if err != nil {
		return false
	}
	for _, a := range chain {
		if a == ancestorID {
			return true
		}
	}
	return false
}

// Path renders the display path of id, e.g. "All Media / Brand / Logos".
func (t *Tree) Path(id string) string {
	n, ok := t.Find(id)
	if !ok {
		return id
	}
	var names []string
	for ; n != nil; n = n.parent {
		names = append(names, n.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " / ")
}

// Validate returns the first cycle found in folders' parent links.
func Validate(folders []models.Folder) error {
	parentOf := make(map[string]string, len(folders))
	for _, f := range folders {
		parentOf[f.ID] = f.ParentID
	}
	for _, f := range folders {
		seen := map[string]bool{f.ID: true}
		chain := []string{f.ID}
		cur := f.ParentID
		for cur != "" && cur != models.RootFolderID {
			chain = append(chain, cur)
			if seen[cur] {
				return fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
			}
			seen[cur] = true
			next, ok := parentOf[cur]
			if !ok {
				break
			}
			cur = next
		}
	}
	return nil
}
