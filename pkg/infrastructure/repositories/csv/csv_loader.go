package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Seed file names looked up by LoadDir
const (
	ProductsFile      = "products.csv"
	LocationsFile     = "locations.csv"
	BOMsFile          = "boms.csv"
	LicensePlatesFile = "license_plates.csv"
	GenealogyFile     = "genealogy.csv"
	WorkOrdersFile    = "work_orders.csv"
)

// ProductRow is one line of products.csv
type ProductRow struct {
	Code          string
	Name          string
	Type          entities.ProductType
	UOM           string
	UnitCost      decimal.Decimal
	UnitPrice     decimal.Decimal
	ShelfLifeDays int
}

// LocationRow is one line of locations.csv. Warehouses are created on first
// sight of their code.
type LocationRow struct {
	WarehouseCode string
	LocationCode  string
	Name          string
	Type          entities.LocationType
}

// BOMRow is one component line of boms.csv. Rows of the same product form
// one BOM.
type BOMRow struct {
	ProductCode   string
	OutputQty     decimal.Decimal
	ComponentCode string
	Quantity      decimal.Decimal
	ScrapPct      decimal.Decimal
}

// LicensePlateRow is one line of license_plates.csv
type LicensePlateRow struct {
	LPNumber     string
	ProductCode  string
	Quantity     decimal.Decimal
	LocationCode string
	Status       entities.LPStatus
	QAStatus     entities.QAStatus
	BatchNumber  string
	ReceivedDate time.Time
	ExpiryDate   *time.Time
}

// GenealogyRow is one line of genealogy.csv
type GenealogyRow struct {
	ParentLP  string
	ChildLP   string
	Operation entities.OperationType
	Quantity  decimal.Decimal
}

// WorkOrderRow is one line of work_orders.csv
type WorkOrderRow struct {
	WONumber       string
	ProductCode    string
	PlannedQty     decimal.Decimal
	ProducedQty    decimal.Decimal
	Status         entities.WOStatus
	LineCode       string
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// Dataset is everything read from a seed directory. Missing files leave
// their slice empty.
type Dataset struct {
	Products      []ProductRow
	Locations     []LocationRow
	BOMs          []BOMRow
	LicensePlates []LicensePlateRow
	Genealogy     []GenealogyRow
	WorkOrders    []WorkOrderRow
}

// Loader handles loading seed data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

var (
	productsHeader      = []string{"code", "name", "type", "uom", "unit_cost", "unit_price", "shelf_life_days"}
	locationsHeader     = []string{"warehouse_code", "location_code", "name", "type"}
	bomsHeader          = []string{"product_code", "output_qty", "component_code", "quantity", "scrap_pct"}
	licensePlatesHeader = []string{"lp_number", "product_code", "quantity", "location_code", "status", "qa_status", "batch_number", "received_date", "expiry_date"}
	genealogyHeader     = []string{"parent_lp", "child_lp", "operation_type", "quantity"}
	workOrdersHeader    = []string{"wo_number", "product_code", "planned_qty", "produced_qty", "status", "line_code", "scheduled_start", "scheduled_end"}
)

// LoadDir reads every seed file present in dir
func (l *Loader) LoadDir(dir string) (*Dataset, error) {
	ds := &Dataset{}
	var err error
	files := []struct {
		name string
		load func(string) error
	}{
		{ProductsFile, func(p string) error { ds.Products, err = l.LoadProducts(p); return err }},
		{LocationsFile, func(p string) error { ds.Locations, err = l.LoadLocations(p); return err }},
		{BOMsFile, func(p string) error { ds.BOMs, err = l.LoadBOMs(p); return err }},
		{LicensePlatesFile, func(p string) error { ds.LicensePlates, err = l.LoadLicensePlates(p); return err }},
		{GenealogyFile, func(p string) error { ds.Genealogy, err = l.LoadGenealogy(p); return err }},
		{WorkOrdersFile, func(p string) error { ds.WorkOrders, err = l.LoadWorkOrders(p); return err }},
	}
	found := 0
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			continue
		}
		found++
		if err := f.load(path); err != nil {
			return nil, err
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("no seed files found in %s", dir)
	}
	return ds, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]ProductRow, error) {
	return loadFile(filename, "products", l.ReadProducts)
}

// ReadProducts parses products CSV
func (l *Loader) ReadProducts(r io.Reader) ([]ProductRow, error) {
	return readRows(r, "products", productsHeader, parseProduct)
}

// LoadLocations loads locations from a CSV file
func (l *Loader) LoadLocations(filename string) ([]LocationRow, error) {
	return loadFile(filename, "locations", l.ReadLocations)
}

// ReadLocations parses locations CSV
func (l *Loader) ReadLocations(r io.Reader) ([]LocationRow, error) {
	return readRows(r, "locations", locationsHeader, parseLocation)
}

// LoadBOMs loads BOM lines from a CSV file
func (l *Loader) LoadBOMs(filename string) ([]BOMRow, error) {
	return loadFile(filename, "BOM", l.ReadBOMs)
}

// ReadBOMs parses BOM CSV
func (l *Loader) ReadBOMs(r io.Reader) ([]BOMRow, error) {
	return readRows(r, "BOM", bomsHeader, parseBOM)
}

// LoadLicensePlates loads license plates from a CSV file
func (l *Loader) LoadLicensePlates(filename string) ([]LicensePlateRow, error) {
	return loadFile(filename, "license plates", l.ReadLicensePlates)
}

// ReadLicensePlates parses license plates CSV
func (l *Loader) ReadLicensePlates(r io.Reader) ([]LicensePlateRow, error) {
	return readRows(r, "license plates", licensePlatesHeader, parseLicensePlate)
}

// LoadGenealogy loads genealogy links from a CSV file
func (l *Loader) LoadGenealogy(filename string) ([]GenealogyRow, error) {
	return loadFile(filename, "genealogy", l.ReadGenealogy)
}

// ReadGenealogy parses genealogy CSV
func (l *Loader) ReadGenealogy(r io.Reader) ([]GenealogyRow, error) {
	return readRows(r, "genealogy", genealogyHeader, parseGenealogy)
}

// LoadWorkOrders loads work orders from a CSV file
func (l *Loader) LoadWorkOrders(filename string) ([]WorkOrderRow, error) {
	return loadFile(filename, "work orders", l.ReadWorkOrders)
}

// ReadWorkOrders parses work orders CSV
func (l *Loader) ReadWorkOrders(r io.Reader) ([]WorkOrderRow, error) {
	return readRows(r, "work orders", workOrdersHeader, parseWorkOrder)
}

func loadFile[T any](filename, what string, read func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", what, filename, err)
	}
	defer file.Close()
	return read(file)
}

func readRows[T any](r io.Reader, what string, expectedHeader []string, parse func([]string) (T, error)) ([]T, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", what, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", what)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", what, expectedHeader, header)
	}

	rows := make([]T, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", what, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}

		row, err := parse(record)
		if err != nil {
			return nil, fmt.Errorf("%s CSV row %d: %w", what, i+2, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Helper functions for parsing CSV records

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (ProductRow, error) {
	productType := entities.ProductType(strings.ToLower(record[2]))
	if !productType.Valid() {
		return ProductRow{}, fmt.Errorf("invalid type: %s", record[2])
	}
	unitCost, err := parseDecimal("unit_cost", record[4])
	if err != nil {
		return ProductRow{}, err
	}
	unitPrice, err := parseDecimal("unit_price", record[5])
	if err != nil {
		return ProductRow{}, err
	}
	shelfLife := 0
	if record[6] != "" {
		if shelfLife, err = strconv.Atoi(record[6]); err != nil {
			return ProductRow{}, fmt.Errorf("invalid shelf_life_days: %s", record[6])
		}
	}

	return ProductRow{
		Code:          record[0],
		Name:          record[1],
		Type:          productType,
		UOM:           record[3],
		UnitCost:      unitCost,
		UnitPrice:     unitPrice,
		ShelfLifeDays: shelfLife,
	}, nil
}

func parseLocation(record []string) (LocationRow, error) {
	locType := entities.LocationType(strings.ToLower(record[3]))
	if locType != "" && !locType.Valid() {
		return LocationRow{}, fmt.Errorf("invalid type: %s", record[3])
	}
	return LocationRow{
		WarehouseCode: record[0],
		LocationCode:  record[1],
		Name:          record[2],
		Type:          locType,
	}, nil
}

func parseBOM(record []string) (BOMRow, error) {
	outputQty, err := parseDecimal("output_qty", record[1])
	if err != nil {
		return BOMRow{}, err
	}
	qty, err := parseDecimal("quantity", record[3])
	if err != nil {
		return BOMRow{}, err
	}
	scrap, err := parseDecimal("scrap_pct", record[4])
	if err != nil {
		return BOMRow{}, err
	}
	return BOMRow{
		ProductCode:   record[0],
		OutputQty:     outputQty,
		ComponentCode: record[2],
		Quantity:      qty,
		ScrapPct:      scrap,
	}, nil
}

func parseLicensePlate(record []string) (LicensePlateRow, error) {
	qty, err := parseDecimal("quantity", record[2])
	if err != nil {
		return LicensePlateRow{}, err
	}
	status := entities.LPStatus(strings.ToLower(record[4]))
	if status == "" {
		status = entities.LPAvailable
	}
	if !status.Valid() {
		return LicensePlateRow{}, fmt.Errorf("invalid status: %s", record[4])
	}
	qa := entities.QAStatus(strings.ToLower(record[5]))
	if qa != "" && !qa.Valid() {
		return LicensePlateRow{}, fmt.Errorf("invalid qa_status: %s", record[5])
	}
	received, err := parseTime("received_date", record[7])
	if err != nil {
		return LicensePlateRow{}, err
	}
	if received == nil {
		return LicensePlateRow{}, fmt.Errorf("received_date is required")
	}
	expiry, err := parseTime("expiry_date", record[8])
	if err != nil {
		return LicensePlateRow{}, err
	}

	return LicensePlateRow{
		LPNumber:     record[0],
		ProductCode:  record[1],
		Quantity:     qty,
		LocationCode: record[3],
		Status:       status,
		QAStatus:     qa,
		BatchNumber:  record[6],
		ReceivedDate: *received,
		ExpiryDate:   expiry,
	}, nil
}

func parseGenealogy(record []string) (GenealogyRow, error) {
	op := entities.OperationType(strings.ToLower(record[2]))
	if !op.Valid() {
		return GenealogyRow{}, fmt.Errorf("invalid operation_type: %s", record[2])
	}
	qty, err := parseDecimal("quantity", record[3])
	if err != nil {
		return GenealogyRow{}, err
	}
	return GenealogyRow{ParentLP: record[0], ChildLP: record[1], Operation: op, Quantity: qty}, nil
}

func parseWorkOrder(record []string) (WorkOrderRow, error) {
	planned, err := parseDecimal("planned_qty", record[2])
	if err != nil {
		return WorkOrderRow{}, err
	}
	produced, err := parseDecimal("produced_qty", record[3])
	if err != nil {
		return WorkOrderRow{}, err
	}
	status := entities.WOStatus(strings.ToLower(record[4]))
	if status == "" {
		status = entities.WODraft
	}
	if !status.Valid() {
		return WorkOrderRow{}, fmt.Errorf("invalid status: %s", record[4])
	}
	start, err := parseTime("scheduled_start", record[6])
	if err != nil {
		return WorkOrderRow{}, err
	}
	end, err := parseTime("scheduled_end", record[7])
	if err != nil {
		return WorkOrderRow{}, err
	}
	if start != nil && end != nil && !end.After(*start) {
		return WorkOrderRow{}, fmt.Errorf("scheduled_end must be after scheduled_start")
	}

	return WorkOrderRow{
		WONumber:       record[0],
		ProductCode:    record[1],
		PlannedQty:     planned,
		ProducedQty:    produced,
		Status:         status,
		LineCode:       record[5],
		ScheduledStart: start,
		ScheduledEnd:   end,
	}, nil
}

// parseDecimal treats an empty cell as zero
func parseDecimal(column, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", column, s)
	}
	return d, nil
}

// parseTime accepts a date or an RFC 3339 timestamp. Empty cells are nil.
func parseTime(column, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %s", column, s)
}
