package testutil

import (
	"fmt"
	"time"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/shopspring/decimal"
)

// FixtureFactory creates stock fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Material creates a material fixture: 100 units at 2.50 per unit, no limit
func (f *FixtureFactory) Material(opts ...func(*domain.Material)) domain.Material {
	seq := f.nextSeq()

	material := domain.Material{
		ID:          fmt.Sprintf("m%d", seq),
		Name:        fmt.Sprintf("Material %d", seq),
		Unit:        "kg",
		CostPerUnit: decimal.RequireFromString("2.50"),
		Available:   100,
	}

	for _, opt := range opts {
		opt(&material)
	}

	return material
}

// WithMaterialID sets the material id
func WithMaterialID(id string) func(*domain.Material) {
	return func(m *domain.Material) {
		m.ID = id
	}
}

// WithMaterialName sets the material name
func WithMaterialName(name string) func(*domain.Material) {
	return func(m *domain.Material) {
		m.Name = name
	}
}

// WithAvailable sets the available quantity
func WithAvailable(available float64) func(*domain.Material) {
	return func(m *domain.Material) {
		m.Available = available
	}
}

// WithMinLimit sets the minimum stock limit
func WithMinLimit(limit float64) func(*domain.Material) {
	return func(m *domain.Material) {
		m.MinStockLimit = &limit
	}
}

// WithDefective sets the defective quantity
func WithDefective(defective float64) func(*domain.Material) {
	return func(m *domain.Material) {
		m.DefectiveQuantity = &defective
	}
}

// WithCost sets the cost per unit from a decimal string
func WithCost(cost string) func(*domain.Material) {
	return func(m *domain.Material) {
		m.CostPerUnit = decimal.RequireFromString(cost)
	}
}

// WithGroup places the material in a group
func WithGroup(groupID string) func(*domain.Material) {
	return func(m *domain.Material) {
		m.GroupID = &groupID
	}
}

// Product creates a product fixture without requirements
func (f *FixtureFactory) Product(opts ...func(*domain.Product)) domain.Product {
	seq := f.nextSeq()

	product := domain.Product{
		ID:        fmt.Sprintf("p%d", seq),
		Name:      fmt.Sprintf("Mattress %d", seq),
		Materials: []domain.Requirement{},
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithProductID sets the product id
func WithProductID(id string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.ID = id
	}
}

// WithProductName sets the product name
func WithProductName(name string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Name = name
	}
}

// WithDimensions sets the legacy dimensions string
func WithDimensions(dimensions string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Dimensions = dimensions
	}
}

// WithRequirement appends a bill-of-materials line
func WithRequirement(material domain.Material, quantity float64) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Materials = append(p.Materials, domain.Requirement{
			MaterialID: material.ID,
			Name:       material.Name,
			Quantity:   quantity,
		})
	}
}

// Group creates a stock group fixture holding the given materials
func (f *FixtureFactory) Group(name string, parentID *string, materials ...domain.Material) domain.StockGroup {
	seq := f.nextSeq()

	ids := make([]string, 0, len(materials))
	for _, m := range materials {
		ids = append(ids, m.ID)
	}

	return domain.StockGroup{
		ID:          fmt.Sprintf("g%d", seq),
		Name:        name,
		ParentID:    parentID,
		MaterialIDs: ids,
	}
}

// Transaction creates a history entry for a material
func (f *FixtureFactory) Transaction(material domain.Material, kind domain.TransactionKind, quantity float64, at time.Time) domain.Transaction {
	seq := f.nextSeq()

	return domain.Transaction{
		ID:           fmt.Sprintf("t%d", seq),
		MaterialID:   material.ID,
		MaterialName: material.Name,
		Kind:         kind,
		Quantity:     quantity,
		PerformedBy:  "user-1",
		CreatedAt:    at,
	}
}

// MattressScenario is a small but complete catalogue: foam, springs and covers,
// two groups and two products, with the springs below their limit.
type MattressScenario struct {
	Foam     domain.Material
	Springs  domain.Material
	Cover    domain.Material
	Raw      domain.StockGroup
	Textiles domain.StockGroup
	Classic  domain.Product
	Pocket   domain.Product
}

// Materials returns the scenario's materials in catalogue order
func (s MattressScenario) Materials() []domain.Material {
	return []domain.Material{s.Foam, s.Springs, s.Cover}
}

// Groups returns the scenario's groups
func (s MattressScenario) Groups() []domain.StockGroup {
	return []domain.StockGroup{s.Raw, s.Textiles}
}

// Products returns the scenario's products
func (s MattressScenario) Products() []domain.Product {
	return []domain.Product{s.Classic, s.Pocket}
}

// NewMattressScenario builds the default catalogue.
// Classic needs 25 foam and 1 cover (4 units possible); Pocket needs 10 foam,
// 200 springs and 1 cover (0 units possible, springs limiting).
func NewMattressScenario() MattressScenario {
	f := NewFixtureFactory()

	foam := f.Material(WithMaterialID("m-foam"), WithMaterialName("Foam"), WithAvailable(100), WithMinLimit(20), WithCost("4.20"))
	springs := f.Material(WithMaterialID("m-springs"), WithMaterialName("Pocket springs"), WithAvailable(150), WithMinLimit(400), WithCost("0.35"), WithDefective(12))
	cover := f.Material(WithMaterialID("m-cover"), WithMaterialName("Cover"), WithAvailable(30), WithCost("18.00"))

	raw := f.Group("Raw materials", nil, foam, springs)
	raw.ID = "g-raw"
	textiles := f.Group("Textiles", nil, cover)
	textiles.ID = "g-textiles"

	classic := f.Product(WithProductID("p-classic"), WithProductName("Classic 90x200"), WithDimensions("90x200x18"),
		WithRequirement(foam, 25), WithRequirement(cover, 1))
	pocket := f.Product(WithProductID("p-pocket"), WithProductName("Pocket 140x200"),
		WithRequirement(foam, 10), WithRequirement(springs, 200), WithRequirement(cover, 1))

	return MattressScenario{
		Foam:     foam,
		Springs:  springs,
		Cover:    cover,
		Raw:      raw,
		Textiles: textiles,
		Classic:  classic,
		Pocket:   pocket,
	}
}
