// Package hierarchy aggregates the flat paths of a traversal into a weighted
// tree ready for radial rendering.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielolaszy/starburst/pkg/models"
)

// ErrMalformedPath is returned for a path node that is not rooted at the
// result's PI or that names no issue.
var ErrMalformedPath = errors.New("malformed path")

// pathSeparator joins path segments into node ids.
const pathSeparator = "|"

// Node is one wedge of the rendered tree. Children hold no back-references;
// a parent is found by trimming the last segment of Data.Path.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Value    float64  `json:"value" yaml:"value"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
	Children []*Node  `json:"children" yaml:"children"`
	Data     NodeData `json:"data" yaml:"data"`
}

// NodeData carries the issue details of a node.
type NodeData struct {
	IssueKey       string                `json:"issueKey,omitempty" yaml:"issueKey,omitempty"`
	StatusCategory models.StatusCategory `json:"statusCategory,omitempty" yaml:"statusCategory,omitempty"`
	Status         string                `json:"status,omitempty" yaml:"status,omitempty"`
	Label          string                `json:"label,omitempty" yaml:"label,omitempty"`
	Path           []string              `json:"path" yaml:"path"`
	Type           models.IssueType      `json:"type,omitempty" yaml:"type,omitempty"`
	Assignee       string                `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Depth          int                   `json:"depth" yaml:"depth"`
}

// Build turns a traversal result into a tree. Every path contributes one
// unit to its last node, values are summed bottom-up, each goal is then
// rescaled to exactly 1 and empty branches are pruned. The result is not
// modified and repeated calls return equal trees.
func Build(result *models.TraversalResult) (*Node, error) {
	if result == nil {
		return nil, nil
	}

	root := &Node{
		ID:       result.PI,
		Name:     result.PI,
		Color:    RootColor,
		Children: []*Node{},
		Data: NodeData{
			Path:  []string{result.PI},
			Depth: 0,
		},
	}

	index := map[string]*Node{result.PI: root}

	nodes := make([]models.PathNode, len(result.Nodes))
	copy(nodes, result.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return len(nodes[i].Path) < len(nodes[j].Path)
	})

	for _, pn := range nodes {
		if len(pn.Path) < 2 || pn.Path[0] != result.PI {
			return nil, fmt.Errorf("%w: %v is not rooted at %s", ErrMalformedPath, pn.Path, result.PI)
		}

		parent := root
		for depth := 1; depth < len(pn.Path); depth++ {
			prefix := pn.Path[:depth+1]
			id := strings.Join(prefix, pathSeparator)

			current, ok := index[id]
			if !ok {
				current = newNode(id, prefix, result.Meta.Issues)
				parent.Children = append(parent.Children, current)
				index[id] = current
			}

			if depth == len(pn.Path)-1 {
				current.Value++
			}
			parent = current
		}
	}

	propagate(root)
	equalizeFirstRing(root)
	updateRootValue(root)
	prune(root)

	return root, nil
}

func newNode(id string, prefix []string, issues map[string]models.IssueMeta) *Node {
	key := prefix[len(prefix)-1]
	path := make([]string, len(prefix))
	copy(path, prefix)

	node := &Node{
		ID:       id,
		Name:     key,
		Children: []*Node{},
		Data: NodeData{
			Label: key,
			Path:  path,
			Depth: len(prefix) - 1,
		},
	}

	meta, ok := issues[key]
	if !ok {
		node.Color = StatusColor("", "")
		return node
	}

	node.Color = StatusColor(meta.StatusCategory, meta.Status)
	node.Data.IssueKey = meta.Key
	node.Data.StatusCategory = meta.StatusCategory
	node.Data.Status = meta.Status
	node.Data.Assignee = meta.Assignee
	node.Data.Label = meta.Label()
	node.Data.Type = meta.Type
	return node
}

// propagate sets every internal node's value to the sum of its children.
func propagate(node *Node) float64 {
	if len(node.Children) == 0 {
		return node.Value
	}

	var total float64
	for _, child := range node.Children {
		total += propagate(child)
	}
	node.Value = total
	return total
}

// equalizeFirstRing scales each goal's subtree so the goal itself weighs 1.
func equalizeFirstRing(root *Node) {
	if len(root.Children) == 0 || root.Value == 0 {
		return
	}

	for _, child := range root.Children {
		if child.Value <= 0 {
			child.Value = 1
			continue
		}
		scale(child, 1/child.Value)
		child.Value = 1
	}
}

func scale(node *Node, factor float64) {
	node.Value *= factor
	for _, child := range node.Children {
		scale(child, factor)
	}
}

func updateRootValue(root *Node) {
	if len(root.Children) == 0 {
		return
	}

	var total float64
	for _, child := range root.Children {
		total += child.Value
	}
	root.Value = total
}

// prune drops children whose value is zero, recursively.
func prune(node *Node) {
	kept := node.Children[:0]
	for _, child := range node.Children {
		if child.Value > 0 {
			kept = append(kept, child)
		}
	}
	node.Children = kept
	for _, child := range node.Children {
		prune(child)
	}
}

// Walk calls fn for node and every descendant, depth first.
func Walk(node *Node, fn func(*Node)) {
	if node == nil {
		return
	}
	fn(node)
	for _, child := range node.Children {
		Walk(child, fn)
	}
}

// Find returns the node with the given id, or nil.
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}

// ParentID returns the id of the parent of a node, derived from its path.
// The root has no parent.
func ParentID(node *Node) (string, bool) {
	if node == nil || len(node.Data.Path) < 2 {
		return "", false
	}
	return strings.Join(node.Data.Path[:len(node.Data.Path)-1], pathSeparator), true
}
