package domain

// StockGroup is a node in the remote group hierarchy
type StockGroup struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ParentID    *string  `json:"parent_id,omitempty"`
	MaterialIDs []string `json:"material_ids"`
}

// GroupNode is a StockGroup resolved against the material list.
// Alerts counts alerting materials in the node and all of its descendants.
type GroupNode struct {
	StockGroup
	Materials []Material   `json:"materials"`
	Children  []*GroupNode `json:"children"`
	Alerts    int          `json:"alerts"`
}
