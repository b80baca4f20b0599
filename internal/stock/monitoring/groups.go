package monitoring

import "github.com/mattressworks/stockboard/internal/stock/domain"

// BuildGroupTree resolves the flat group list into a forest.
// Roots are groups without a parent or whose parent is unknown; children keep input order.
// Groups only reachable through a cycle are promoted to roots, first in input order.
func BuildGroupTree(groups []domain.StockGroup, materials []domain.Material) []*domain.GroupNode {
	byID := make(map[string]domain.StockGroup, len(groups))
	order := make([]string, 0, len(groups))
	for _, g := range groups {
		if _, seen := byID[g.ID]; seen {
			continue
		}
		byID[g.ID] = g
		order = append(order, g.ID)
	}

	children := make(map[string][]string)
	var roots []string
	for _, id := range order {
		g := byID[id]
		if g.ParentID == nil || *g.ParentID == "" {
			roots = append(roots, id)
			continue
		}
		if _, ok := byID[*g.ParentID]; !ok {
			roots = append(roots, id)
			continue
		}
		children[*g.ParentID] = append(children[*g.ParentID], id)
	}

	b := treeBuilder{
		groups:    byID,
		children:  children,
		materials: indexMaterials(materials),
		alerting:  alertingIDs(materials),
		visited:   make(map[string]bool),
	}

	forest := make([]*domain.GroupNode, 0, len(roots))
	for _, id := range roots {
		forest = append(forest, b.build(id))
	}
	for _, id := range order {
		if !b.visited[id] {
			forest = append(forest, b.build(id))
		}
	}
	return forest
}

type treeBuilder struct {
	groups    map[string]domain.StockGroup
	children  map[string][]string
	materials map[string]domain.Material
	alerting  map[string]bool
	visited   map[string]bool
}

func (b *treeBuilder) build(id string) *domain.GroupNode {
	b.visited[id] = true

	node := &domain.GroupNode{
		StockGroup: b.groups[id],
		Materials:  make([]domain.Material, 0, len(b.groups[id].MaterialIDs)),
		Children:   make([]*domain.GroupNode, 0, len(b.children[id])),
	}

	for _, materialID := range node.MaterialIDs {
		m, ok := b.materials[materialID]
		if !ok {
			continue
		}
		node.Materials = append(node.Materials, m)
		if b.alerting[materialID] {
			node.Alerts++
		}
	}

	for _, childID := range b.children[id] {
		if b.visited[childID] {
			continue
		}
		child := b.build(childID)
		node.Children = append(node.Children, child)
		node.Alerts += child.Alerts
	}

	return node
}
