package traversal

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/danielolaszy/starburst/pkg/models"
)

// emitter walks the resolved levels depth first and records one path node
// per visited issue until the node cap is hit.
type emitter struct {
	levels    []level
	maxNodes  int
	nodes     []models.PathNode
	meta      map[string]models.IssueMeta
	truncated bool
}

// emit returns the path nodes for goals and their resolved descendants,
// the metadata of every emitted issue and whether the cap stopped emission.
func emit(pi string, goals []models.Issue, levels []level, maxNodes int) ([]models.PathNode, map[string]models.IssueMeta, bool) {
	em := &emitter{
		levels:   levels,
		maxNodes: maxNodes,
		nodes:    []models.PathNode{},
		meta:     make(map[string]models.IssueMeta),
	}

	for _, goal := range goals {
		if !em.walk([]string{pi, goal.Key}, goal, 0) {
			break
		}
	}

	return em.nodes, em.meta, em.truncated
}

// walk emits issue at path and then its children. It returns false once the
// cap has been reached.
func (em *emitter) walk(path []string, issue models.Issue, depth int) bool {
	if !em.push(path, issue) {
		return false
	}
	if depth >= len(em.levels) {
		return true
	}

	lvl := em.levels[depth]
	for _, key := range lvl.children[issue.Key] {
		child, ok := lvl.issues[key]
		if !ok {
			continue
		}
		childPath := make([]string, len(path), len(path)+1)
		copy(childPath, path)
		if !em.walk(append(childPath, key), child, depth+1) {
			return false
		}
	}
	return true
}

func (em *emitter) push(path []string, issue models.Issue) bool {
	if len(em.nodes) >= em.maxNodes {
		em.truncated = true
		return false
	}

	if _, ok := em.meta[issue.Key]; !ok {
		em.meta[issue.Key] = issue.IssueMeta
	}

	em.nodes = append(em.nodes, models.PathNode{
		Path:           path,
		ID:             issue.Key,
		Label:          issue.Label(),
		StatusCategory: issue.StatusCategory,
	})
	return true
}

func nodeCapWarning(maxNodes int) string {
	return fmt.Sprintf("Too many nodes; showing first %s", humanize.Comma(int64(maxNodes)))
}
