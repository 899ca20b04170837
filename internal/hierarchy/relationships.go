package hierarchy

import "github.com/danielolaszy/starburst/pkg/models"

// Relationships lists the direct neighbours of an issue within a traversal.
type Relationships struct {
	Parents  []models.IssueMeta `json:"parents" yaml:"parents"`
	Children []models.IssueMeta `json:"children" yaml:"children"`
}

// ExtractRelationships collects the issues directly above and below key in
// any emitted path. The PI itself is never reported, and keys without
// metadata are skipped.
func ExtractRelationships(result *models.TraversalResult, key string) Relationships {
	rel := Relationships{Parents: []models.IssueMeta{}, Children: []models.IssueMeta{}}
	if result == nil {
		return rel
	}

	var parents, children []string
	for _, node := range result.Nodes {
		for i, segment := range node.Path {
			if i == 0 || segment != key {
				continue
			}
			if p := node.Path[i-1]; p != result.PI {
				parents = append(parents, p)
			}
			if i+1 < len(node.Path) {
				children = append(children, node.Path[i+1])
			}
		}
	}

	rel.Parents = keysToMeta(result, parents)
	rel.Children = keysToMeta(result, children)
	return rel
}

func keysToMeta(result *models.TraversalResult, keys []string) []models.IssueMeta {
	metas := []models.IssueMeta{}
	seen := make(map[string]bool)
	for _, key := range keys {
		if seen[key] {
			continue
		}
		if meta, ok := result.Meta.Issues[key]; ok {
			metas = append(metas, meta)
			seen[key] = true
		}
	}
	return metas
}
