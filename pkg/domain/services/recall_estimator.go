package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recall cost factors
var (
	RetrievalRate  = decimal.RequireFromString("0.15")
	DisposalRate   = decimal.RequireFromString("0.05")
	ConfidenceRate = decimal.RequireFromString("0.15")
)

// ReportWindow is how long after a simulation a reportable recall is due
const ReportWindow = 24 * time.Hour

// Regulatory report states
const (
	ReportPending     = "pending"
	ReportNotRequired = "not_required"
)

// RecallFinancial is the cost estimate of a recall
type RecallFinancial struct {
	ProductValue       decimal.Decimal `json:"product_value"`
	RetrievalCost      decimal.Decimal `json:"retrieval_cost"`
	DisposalCost       decimal.Decimal `json:"disposal_cost"`
	LostRevenue        decimal.Decimal `json:"lost_revenue"`
	TotalEstimatedCost decimal.Decimal `json:"total_estimated_cost"`
	ConfidenceLow      decimal.Decimal `json:"confidence_low"`
	ConfidenceHigh     decimal.Decimal `json:"confidence_high"`
	ConfidenceInterval string          `json:"confidence_interval"`
}

// RecallRegulatory is the reporting obligation of a recall
type RecallRegulatory struct {
	Reportable           bool       `json:"reportable"`
	ReportDueDate        *time.Time `json:"report_due_date,omitempty"`
	ReportStatus         string     `json:"report_status"`
	AffectedProductTypes []string   `json:"affected_product_types"`
}

// RecallEstimator prices a recall and decides whether it must be reported
type RecallEstimator struct{}

// NewRecallEstimator creates a recall estimator
func NewRecallEstimator() *RecallEstimator {
	return &RecallEstimator{}
}

// Financial prices a recall. productValue is the cost of affected stock
// still held, shippedValue the sales value of what already left.
func (e *RecallEstimator) Financial(productValue, shippedValue decimal.Decimal) RecallFinancial {
	f := RecallFinancial{
		ProductValue:  productValue.Round(2),
		RetrievalCost: shippedValue.Mul(RetrievalRate).Round(2),
		DisposalCost:  productValue.Mul(DisposalRate).Round(2),
		LostRevenue:   shippedValue.Round(2),
	}
	f.TotalEstimatedCost = f.ProductValue.Add(f.RetrievalCost).Add(f.DisposalCost).Add(f.LostRevenue)
	one := decimal.NewFromInt(1)
	f.ConfidenceLow = f.TotalEstimatedCost.Mul(one.Sub(ConfidenceRate)).Round(2)
	f.ConfidenceHigh = f.TotalEstimatedCost.Mul(one.Add(ConfidenceRate)).Round(2)
	f.ConfidenceInterval = "±" + ConfidenceRate.Mul(decimal.NewFromInt(100)).String() + "%"
	return f
}

// Regulatory marks a recall reportable once any affected material shipped
func (e *RecallEstimator) Regulatory(shipped bool, productTypes []string, at time.Time) RecallRegulatory {
	r := RecallRegulatory{ReportStatus: ReportNotRequired, AffectedProductTypes: productTypes}
	if r.AffectedProductTypes == nil {
		r.AffectedProductTypes = []string{}
	}
	if shipped {
		due := at.Add(ReportWindow)
		r.Reportable = true
		r.ReportDueDate = &due
		r.ReportStatus = ReportPending
	}
	return r
}
