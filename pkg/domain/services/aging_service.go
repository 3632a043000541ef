package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Aging bucket labels
const (
	BucketExpired  = "expired"
	BucketNoExpiry = "no_expiry"
)

type bucketBound struct {
	label string
	max   int // inclusive upper bound in days, -1 for open ended
}

var fifoBuckets = []bucketBound{
	{"0-30", 30}, {"31-60", 60}, {"61-90", 90}, {"91-180", 180}, {"180+", -1},
}

var fefoBuckets = []bucketBound{
	{"0-7", 7}, {"8-30", 30}, {"31-90", 90}, {"90+", -1},
}

// BucketLabels lists a strategy's buckets in report order
func BucketLabels(strategy entities.AllocationStrategy) []string {
	var labels []string
	if strategy == entities.FEFO {
		labels = append(labels, BucketExpired)
		for _, b := range fefoBuckets {
			labels = append(labels, b.label)
		}
		return append(labels, BucketNoExpiry)
	}
	for _, b := range fifoBuckets {
		labels = append(labels, b.label)
	}
	return labels
}

func bucketOf(bounds []bucketBound, days int) string {
	for _, b := range bounds {
		if b.max < 0 || days <= b.max {
			return b.label
		}
	}
	return bounds[len(bounds)-1].label
}

// AgingBucket totals one age band
type AgingBucket struct {
	Label    string          `json:"label"`
	Quantity decimal.Decimal `json:"quantity"`
	LPCount  int             `json:"lp_count"`
	Value    decimal.Decimal `json:"value"`
}

// AgingRow is one product's aging profile
type AgingRow struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	UOM            string          `json:"uom"`
	Buckets        []AgingBucket   `json:"buckets"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalLPs       int             `json:"total_lps"`
	TotalValue     decimal.Decimal `json:"total_value"`
	OldestLPNumber string          `json:"oldest_lp_number"`
	OldestAgeDays  int             `json:"oldest_age_days"`
	SoonestExpiry  *time.Time      `json:"soonest_expiry,omitempty"`
}

// AgingReport is the aging of an org's active stock
type AgingReport struct {
	Strategy      entities.AllocationStrategy `json:"strategy"`
	AsOf          time.Time                   `json:"as_of"`
	Buckets       []string                    `json:"buckets"`
	Rows          []AgingRow                  `json:"rows"`
	Totals        []AgingBucket               `json:"totals"`
	TotalQuantity decimal.Decimal             `json:"total_quantity"`
	TotalValue    decimal.Decimal             `json:"total_value"`
	TotalLPs      int                         `json:"total_lps"`
}

// AgingCalculator buckets active license plates by age (FIFO) or time to
// expiry (FEFO)
type AgingCalculator struct{}

// NewAgingCalculator creates an aging calculator
func NewAgingCalculator() *AgingCalculator {
	return &AgingCalculator{}
}

// Bucket returns the bucket of lp under strategy as of asOf
func (c *AgingCalculator) Bucket(strategy entities.AllocationStrategy, lp *entities.LicensePlate, asOf time.Time) string {
	if strategy == entities.FEFO {
		if lp.ExpiryDate == nil {
			return BucketNoExpiry
		}
		days := entities.DaysBetween(asOf, *lp.ExpiryDate)
		if days < 0 {
			return BucketExpired
		}
		return bucketOf(fefoBuckets, days)
	}
	return bucketOf(fifoBuckets, entities.DaysBetween(lp.CreatedAt, asOf))
}

func emptyBuckets(labels []string) []AgingBucket {
	out := make([]AgingBucket, len(labels))
	for i, l := range labels {
		out[i] = AgingBucket{Label: l, Quantity: decimal.Zero, Value: decimal.Zero}
	}
	return out
}

// Report builds the aging report. Plates that are consumed, shipped or empty
// are ignored. products supplies codes and unit costs.
func (c *AgingCalculator) Report(strategy entities.AllocationStrategy, lps []*entities.LicensePlate, products map[uuid.UUID]*entities.Product, asOf time.Time) (*AgingReport, error) {
	if !strategy.Valid() {
		return nil, entities.ValidationError("unknown aging strategy %q", strategy)
	}
	labels := BucketLabels(strategy)
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	report := &AgingReport{
		Strategy:      strategy,
		AsOf:          asOf,
		Buckets:       labels,
		Rows:          []AgingRow{},
		Totals:        emptyBuckets(labels),
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
	}
	rows := make(map[uuid.UUID]*AgingRow)
	var order []uuid.UUID

	for _, lp := range lps {
		if !lp.IsActive() {
			continue
		}
		row, ok := rows[lp.ProductID]
		if !ok {
			row = &AgingRow{
				ProductID:     lp.ProductID,
				UOM:           lp.UOM,
				Buckets:       emptyBuckets(labels),
				TotalQuantity: decimal.Zero,
				TotalValue:    decimal.Zero,
				OldestAgeDays: -1,
			}
			if p := products[lp.ProductID]; p != nil {
				row.ProductCode, row.ProductName = p.Code, p.Name
			}
			rows[lp.ProductID] = row
			order = append(order, lp.ProductID)
		}

		value := decimal.Zero
		if p := products[lp.ProductID]; p != nil {
			value = lp.Quantity.Mul(p.UnitCost)
		}
		i := index[c.Bucket(strategy, lp, asOf)]
		for _, b := range []*AgingBucket{&row.Buckets[i], &report.Totals[i]} {
			b.Quantity = b.Quantity.Add(lp.Quantity)
			b.Value = b.Value.Add(value)
			b.LPCount++
		}
		row.TotalQuantity = row.TotalQuantity.Add(lp.Quantity)
		row.TotalValue = row.TotalValue.Add(value)
		row.TotalLPs++

		if age := entities.DaysBetween(lp.CreatedAt, asOf); age > row.OldestAgeDays {
			row.OldestAgeDays = age
			row.OldestLPNumber = lp.LPNumber
		}
		if lp.ExpiryDate != nil && (row.SoonestExpiry == nil || lp.ExpiryDate.Before(*row.SoonestExpiry)) {
			e := *lp.ExpiryDate
			row.SoonestExpiry = &e
		}
	}

	for _, id := range order {
		row := rows[id]
		report.Rows = append(report.Rows, *row)
		report.TotalQuantity = report.TotalQuantity.Add(row.TotalQuantity)
		report.TotalValue = report.TotalValue.Add(row.TotalValue)
		report.TotalLPs += row.TotalLPs
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].ProductCode < report.Rows[j].ProductCode
	})
	return report, nil
}
