// Package category provides a read-only, depth-annotated snapshot of the
// externally-owned category taxonomy: Step (depth 0) → Chapter (depth 1) →
// Point (depth 2).
package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/stepwork/stepbot/internal/database"
)

// Node is one category with its depth computed at snapshot build time, so
// level queries never walk parent links afterwards.
type Node struct {
	ID          int64
	Name        string
	ParentID    int64
	Depth       int
	Description string
	Children    []int64
}

// Tree is an immutable snapshot of the taxonomy. Nodes and child lists are
// ordered by id, which is the stable creation order the traversal relies on.
type Tree struct {
	nodes map[int64]*Node
	roots []int64
}

// BuildTree constructs a snapshot from category rows. Rows must be provided
// in id order. A node whose parent chain cannot be resolved (missing row or
// cycle) gets the depth of the hops that did resolve.
func BuildTree(categories []database.Category) *Tree {
	t := &Tree{nodes: make(map[int64]*Node, len(categories))}

	for _, c := range categories {
		t.nodes[c.ID] = &Node{
			ID:          c.ID,
			Name:        c.Name,
			ParentID:    c.ParentID,
			Description: c.Description,
		}
	}

	for _, c := range categories {
		if c.ParentID == 0 {
			t.roots = append(t.roots, c.ID)
			continue
		}
		if parent, ok := t.nodes[c.ParentID]; ok {
			parent.Children = append(parent.Children, c.ID)
		} else {
			// Orphan: its subtree still resolves, rooted at the orphan.
			t.roots = append(t.roots, c.ID)
		}
	}

	for _, n := range t.nodes {
		n.Depth = t.computeDepth(n)
	}

	return t
}

func (t *Tree) computeDepth(n *Node) int {
	depth := 0
	cur := n
	for cur.ParentID != 0 {
		parent, ok := t.nodes[cur.ParentID]
		if !ok || depth > len(t.nodes) {
			break
		}
		depth++
		cur = parent
	}
	return depth
}

// Get returns the node for id, or nil if the id does not resolve.
func (t *Tree) Get(id int64) *Node {
	return t.nodes[id]
}

// Roots returns all level-0 nodes in id order. More than one root is
// expected: each Step of the program is its own root.
func (t *Tree) Roots() []*Node {
	out := make([]*Node, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id])
	}
	return out
}

// Children returns the ordered child nodes of id.
func (t *Tree) Children(id int64) []*Node {
	n := t.nodes[id]
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		out = append(out, t.nodes[cid])
	}
	return out
}

// Path returns the nodes from the root down to id, inclusive. Returns nil
// if the id does not resolve.
func (t *Tree) Path(id int64) []*Node {
	n := t.nodes[id]
	if n == nil {
		return nil
	}

	var rev []*Node
	for n != nil {
		rev = append(rev, n)
		if n.ParentID == 0 || len(rev) > len(t.nodes) {
			break
		}
		n = t.nodes[n.ParentID]
	}

	out := make([]*Node, len(rev))
	for i, nd := range rev {
		out[len(rev)-1-i] = nd
	}
	return out
}

// Descendants returns id plus every descendant id, depth-first in id order.
// Used to count posts across a whole subtree.
func (t *Tree) Descendants(id int64) []int64 {
	n := t.nodes[id]
	if n == nil {
		return nil
	}

	out := []int64{id}
	for _, cid := range n.Children {
		out = append(out, t.Descendants(cid)...)
	}
	return out
}

// NextPoint computes the deterministic successor of a Point: the next
// sibling Point under the same Chapter, otherwise the first Point of the
// next Chapter (in id order) under the same Step that has any Points.
// Returns nil for non-Points, for the last Point of the last Chapter, and
// for nodes without a full parent chain.
func (t *Tree) NextPoint(id int64) *Node {
	point := t.nodes[id]
	if point == nil || point.Depth != DepthPoint {
		return nil
	}

	chapter := t.nodes[point.ParentID]
	if chapter == nil {
		return nil
	}

	for i, sib := range chapter.Children {
		if sib == id && i+1 < len(chapter.Children) {
			return t.nodes[chapter.Children[i+1]]
		}
	}

	step := t.nodes[chapter.ParentID]
	if step == nil {
		return nil
	}

	passed := false
	for _, chID := range step.Children {
		if chID == chapter.ID {
			passed = true
			continue
		}
		if !passed {
			continue
		}
		if next := t.nodes[chID]; next != nil && len(next.Children) > 0 {
			return t.nodes[next.Children[0]]
		}
	}

	return nil
}

const (
	treeCacheKey = "tree"
	treeCacheTTL = 5 * time.Minute
)

// Manager loads tree snapshots from the store and caches them with a TTL so
// depth and traversal queries are O(1) between refreshes.
type Manager struct {
	store  database.Store
	cache  *gocache.Cache
	logger *slog.Logger
}

// NewManager creates a snapshot manager over the given store.
func NewManager(store database.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		cache:  gocache.New(treeCacheTTL, 2*treeCacheTTL),
		logger: logger.With("component", "category_tree"),
	}
}

// Snapshot returns the cached tree, rebuilding it from the store when the
// cache has expired.
func (m *Manager) Snapshot(ctx context.Context) (*Tree, error) {
	if cached, ok := m.cache.Get(treeCacheKey); ok {
		return cached.(*Tree), nil
	}

	categories, err := m.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category tree: %w", err)
	}

	tree := BuildTree(categories)
	m.cache.Set(treeCacheKey, tree, gocache.DefaultExpiration)
	m.logger.DebugContext(ctx, "Category tree snapshot rebuilt", "nodes", len(categories))
	return tree, nil
}

// Invalidate drops the cached snapshot, forcing a rebuild on next use.
func (m *Manager) Invalidate() {
	m.cache.Delete(treeCacheKey)
}
