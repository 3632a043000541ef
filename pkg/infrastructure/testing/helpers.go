package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
)

// BaseDate is the clock every fixture runs on
var BaseDate = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// Fixture is one onboarded organization in a memory store with a main
// warehouse and receiving location
type Fixture struct {
	Store     *memory.Store
	Org       *entities.Organization
	Warehouse *entities.Warehouse
	Location  *entities.Location
	Now       time.Time

	seq int
}

// Clock returns the fixture time, for services' Now field
func (f *Fixture) Clock() time.Time { return f.Now }

// OrgID is the fixture organization's id
func (f *Fixture) OrgID() uuid.UUID { return f.Org.ID }

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// New builds an empty organization named "Test Bakery"
func New() *Fixture {
	return NewInStore(memory.NewStore(), "Test Bakery")
}

// NewInStore onboards another organization into an existing store
func NewInStore(store *memory.Store, name string) *Fixture {
	ctx := context.Background()
	f := &Fixture{Store: store, Now: BaseDate}

	f.Org = must(entities.NewOrganization(name, uuid.NewString()[:8], BaseDate))
	check(store.Organizations.Create(ctx, f.Org, entities.DefaultWarehouseSettings(f.Org.ID, BaseDate)))
	f.Warehouse = f.AddWarehouse("MAIN")
	f.Location = f.AddLocation(f.Warehouse, "MAIN-RECV")
	return f
}

// Settings returns the organization's settings
func (f *Fixture) Settings() *entities.WarehouseSettings {
	return must(f.Store.Organizations.GetSettings(context.Background(), f.Org.ID))
}

// UpdateSettings applies fn to the stored settings
func (f *Fixture) UpdateSettings(fn func(s *entities.WarehouseSettings)) {
	s := f.Settings()
	fn(s)
	check(f.Store.Organizations.SaveSettings(context.Background(), s))
}

// AddWarehouse creates a warehouse
func (f *Fixture) AddWarehouse(code string) *entities.Warehouse {
	w := must(entities.NewWarehouse(f.Org.ID, code, "", BaseDate))
	check(f.Store.Locations.CreateWarehouse(context.Background(), w))
	return w
}

// AddLocation creates a shelf location in w
func (f *Fixture) AddLocation(w *entities.Warehouse, code string) *entities.Location {
	l := must(entities.NewLocation(f.Org.ID, w.ID, code, code, entities.Shelf, BaseDate))
	check(f.Store.Locations.CreateLocation(context.Background(), l))
	return l
}

// AddProduct creates a product with the given cost, price and shelf life
func (f *Fixture) AddProduct(code string, productType entities.ProductType, unitCost, unitPrice string, shelfLifeDays int) *entities.Product {
	p := must(entities.NewProduct(f.Org.ID, code, code, productType, "KG",
		decimal.RequireFromString(unitCost), decimal.RequireFromString(unitPrice), shelfLifeDays, BaseDate))
	check(f.Store.Products.Create(context.Background(), p))
	return p
}

// AddCustomer creates a customer
func (f *Fixture) AddCustomer(name string) *entities.Customer {
	c := must(entities.NewCustomer(f.Org.ID, name, "", BaseDate))
	check(f.Store.Customers.Create(context.Background(), c))
	return c
}

// LPOption tweaks a plate before it is stored
type LPOption func(lp *entities.LicensePlate)

// ReceivedDaysAgo backdates the receipt
func ReceivedDaysAgo(days int) LPOption {
	return func(lp *entities.LicensePlate) {
		lp.CreatedAt = BaseDate.AddDate(0, 0, -days)
	}
}

// ExpiresInDays sets the expiry relative to BaseDate
func ExpiresInDays(days int) LPOption {
	return func(lp *entities.LicensePlate) {
		e := BaseDate.AddDate(0, 0, days)
		lp.ExpiryDate = &e
	}
}

// WithStatus sets the plate status
func WithStatus(status entities.LPStatus) LPOption {
	return func(lp *entities.LicensePlate) { lp.Status = status }
}

// WithQA sets the QA status
func WithQA(qa entities.QAStatus) LPOption {
	return func(lp *entities.LicensePlate) { lp.QAStatus = qa }
}

// WithBatch sets the batch number
func WithBatch(batch string) LPOption {
	return func(lp *entities.LicensePlate) { lp.BatchNumber = batch }
}

// AtLocation places the plate
func AtLocation(l *entities.Location) LPOption {
	return func(lp *entities.LicensePlate) {
		lp.LocationID = l.ID
		lp.WarehouseID = l.WarehouseID
	}
}

// AddLP stores a QA-passed available plate of p numbered LP00000001 onwards
func (f *Fixture) AddLP(p *entities.Product, qty string, opts ...LPOption) *entities.LicensePlate {
	ctx := context.Background()
	n := must(f.Store.Sequences.Next(ctx, f.Org.ID, "LP"))
	lp := must(entities.NewLicensePlate(f.Org.ID, fmtLP(n), p.ID, decimal.RequireFromString(qty), p.UOM,
		f.Warehouse.ID, f.Location.ID, entities.SourceReceipt, BaseDate))
	lp.QAStatus = entities.QAPassed
	for _, opt := range opts {
		opt(lp)
	}
	lp.UpdatedAt = lp.CreatedAt
	check(f.Store.LicensePlates.Create(ctx, lp))
	return lp
}

// Allocate binds qty of lp to a line of an otherwise unseen sales order
func (f *Fixture) Allocate(lp *entities.LicensePlate, qty string) *entities.InventoryAllocation {
	a := must(entities.NewInventoryAllocation(f.Org.ID, uuid.New(), uuid.New(), lp.ID, decimal.RequireFromString(qty), BaseDate))
	check(f.Store.Allocations.Create(context.Background(), a))
	return a
}

// Link stores an active genealogy link
func (f *Fixture) Link(parent, child *entities.LicensePlate, op entities.OperationType, qty string) *entities.GenealogyLink {
	link := must(entities.NewGenealogyLink(f.Org.ID, parent.ID, child.ID, op, decimal.RequireFromString(qty), nil, BaseDate))
	check(f.Store.Genealogy.Create(context.Background(), link))
	return link
}

// AddBOM stores an active BOM for product with (component, qty) pairs
func (f *Fixture) AddBOM(product *entities.Product, outputQty string, components ...any) *entities.BOM {
	items := make([]entities.BOMItem, 0, len(components)/2)
	for i := 0; i+1 < len(components); i += 2 {
		c := components[i].(*entities.Product)
		item := must(entities.NewBOMItem(c.ID, decimal.RequireFromString(components[i+1].(string)), decimal.Zero, i/2+1))
		items = append(items, *item)
	}
	bom := must(entities.NewBOM(f.Org.ID, product.ID, 1, decimal.RequireFromString(outputQty), items, BaseDate))
	bom.Status = entities.BOMActive
	check(f.Store.BOMs.Create(context.Background(), bom))
	return bom
}

// Bakery is a small bread line: flour and yeast go into dough, dough into
// bread
type Bakery struct {
	*Fixture
	Flour, Yeast, Dough, Bread *entities.Product
	DoughBOM, BreadBOM         *entities.BOM
}

// NewBakery builds the bakery scenario with no stock
func NewBakery() *Bakery {
	f := New()
	b := &Bakery{Fixture: f}
	b.Flour = f.AddProduct("FLOUR", entities.RawMaterial, "0.80", "1.20", 180)
	b.Yeast = f.AddProduct("YEAST", entities.RawMaterial, "4.00", "6.00", 30)
	b.Dough = f.AddProduct("DOUGH", entities.WorkInProc, "2.00", "0", 3)
	b.Bread = f.AddProduct("BREAD", entities.Finished, "3.00", "5.50", 5)
	b.DoughBOM = f.AddBOM(b.Dough, "10", b.Flour, "8", b.Yeast, "0.5")
	b.BreadBOM = f.AddBOM(b.Bread, "20", b.Dough, "10")
	return b
}

func fmtLP(n int64) string {
	return fmt.Sprintf("LP%08d", n)
}
