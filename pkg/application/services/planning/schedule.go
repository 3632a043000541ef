package planning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// GanttRequest filters the schedule
type GanttRequest struct {
	Statuses []entities.WOStatus `form:"status"`
	LineCode string              `form:"line"`
	From     *time.Time          `form:"from" time_format:"2006-01-02"`
	To       *time.Time          `form:"to" time_format:"2006-01-02"`
}

// GanttItem is one scheduled work order
type GanttItem struct {
	WorkOrderID     uuid.UUID           `json:"work_order_id"`
	WONumber        string              `json:"wo_number"`
	ProductID       uuid.UUID           `json:"product_id"`
	ProductCode     string              `json:"product_code"`
	ProductName     string              `json:"product_name"`
	Status          entities.WOStatus   `json:"status"`
	Priority        entities.WOPriority `json:"priority"`
	LineCode        string              `json:"line_code"`
	Start           time.Time           `json:"scheduled_start"`
	End             time.Time           `json:"scheduled_end"`
	PlannedQty      decimal.Decimal     `json:"planned_qty"`
	ProducedQty     decimal.Decimal     `json:"produced_qty"`
	ProgressPercent int                 `json:"progress_percent"`
	IsOverdue       bool                `json:"is_overdue"`
}

// Swimlane is every scheduled order of one line
type Swimlane struct {
	LineCode string      `json:"line_code"`
	Items    []GanttItem `json:"items"`
}

// Gantt is the schedule grouped by line
type Gantt struct {
	Swimlanes []Swimlane `json:"swimlanes"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Total     int        `json:"total"`
}

// LineAvailability reports clashes on a line for a time window
type LineAvailability struct {
	LineCode  string      `json:"line_code"`
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	Available bool        `json:"available"`
	Conflicts []GanttItem `json:"conflicts"`
}

// RescheduleRequest moves a work order. An empty line keeps the current one.
type RescheduleRequest struct {
	LineCode string    `json:"line_code,omitempty"`
	Start    time.Time `json:"scheduled_start"`
	End      time.Time `json:"scheduled_end"`
}

func (s *Service) items(ctx context.Context, orgID uuid.UUID, orders []*entities.WorkOrder) ([]GanttItem, error) {
	ids := make([]uuid.UUID, len(orders))
	for i, wo := range orders {
		ids[i] = wo.ProductID
	}
	products, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	now := s.Now().UTC()
	out := make([]GanttItem, 0, len(orders))
	for _, wo := range orders {
		if wo.ScheduledStart == nil || wo.ScheduledEnd == nil {
			continue
		}
		item := GanttItem{
			WorkOrderID:     wo.ID,
			WONumber:        wo.WONumber,
			ProductID:       wo.ProductID,
			Status:          wo.Status,
			Priority:        wo.Priority,
			LineCode:        wo.LineCode,
			Start:           *wo.ScheduledStart,
			End:             *wo.ScheduledEnd,
			PlannedQty:      wo.PlannedQty,
			ProducedQty:     wo.ProducedQty,
			ProgressPercent: wo.ProgressPercent(),
			IsOverdue:       wo.IsOverdue(now),
		}
		if p, ok := products[wo.ProductID]; ok {
			item.ProductCode = p.Code
			item.ProductName = p.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// Gantt returns scheduled work orders as swimlanes by line code. Orders
// without a line share the "unassigned" lane.
func (s *Service) Gantt(ctx context.Context, orgID uuid.UUID, req GanttRequest) (*Gantt, error) {
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, entities.ValidationError("date range end is before its start")
	}
	orders, err := s.orders.List(ctx, orgID, repositories.WOFilter{
		Statuses: req.Statuses,
		LineCode: req.LineCode,
		From:     req.From,
		To:       req.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	items, err := s.items(ctx, orgID, orders)
	if err != nil {
		return nil, err
	}

	lanes := make(map[string]*Swimlane)
	var codes []string
	for _, it := range items {
		code := it.LineCode
		if code == "" {
			code = "unassigned"
		}
		lane, ok := lanes[code]
		if !ok {
			lane = &Swimlane{LineCode: code}
			lanes[code] = lane
			codes = append(codes, code)
		}
		lane.Items = append(lane.Items, it)
	}
	sort.Strings(codes)

	g := &Gantt{Swimlanes: make([]Swimlane, 0, len(codes)), From: req.From, To: req.To, Total: len(items)}
	for _, code := range codes {
		lane := lanes[code]
		sort.SliceStable(lane.Items, func(i, j int) bool { return lane.Items[i].Start.Before(lane.Items[j].Start) })
		g.Swimlanes = append(g.Swimlanes, *lane)
	}
	return g, nil
}

// CheckLineAvailability lists live work orders on line overlapping
// [start, end), ignoring exclude
func (s *Service) CheckLineAvailability(ctx context.Context, orgID uuid.UUID, line string, start, end time.Time, exclude *uuid.UUID) (*LineAvailability, error) {
	if line == "" {
		return nil, entities.ValidationError("line code cannot be empty")
	}
	if !end.After(start) {
		return nil, entities.ValidationError("end must be after start")
	}
	orders, err := s.orders.List(ctx, orgID, repositories.WOFilter{LineCode: line, From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	var clashing []*entities.WorkOrder
	for _, wo := range orders {
		if exclude != nil && wo.ID == *exclude {
			continue
		}
		if wo.Status.IsFinal() {
			continue
		}
		if wo.ScheduledStart.Before(end) && start.Before(*wo.ScheduledEnd) {
			clashing = append(clashing, wo)
		}
	}
	conflicts, err := s.items(ctx, orgID, clashing)
	if err != nil {
		return nil, err
	}
	return &LineAvailability{
		LineCode:  line,
		Start:     start,
		End:       end,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// Reschedule moves a live work order to a free future window
func (s *Service) Reschedule(ctx context.Context, orgID, woID uuid.UUID, req RescheduleRequest) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, woID); err != nil {
			return err
		}
		if wo.Status.IsFinal() {
			return entities.ConflictError("work order %s is %s and cannot be rescheduled", wo.WONumber, wo.Status)
		}
		now := s.Now().UTC()
		if req.Start.Before(now) {
			return entities.ValidationError("cannot reschedule into the past")
		}
		start, end := req.Start, req.End
		if err := s.schedule(ctx, orgID, wo, req.LineCode, &start, &end); err != nil {
			return err
		}
		wo.UpdatedAt = now
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityWORescheduled, wo.ID,
		fmt.Sprintf("%s rescheduled to %s on %s", wo.WONumber, wo.ScheduledStart.Format(time.RFC3339), wo.LineCode), nil)
	return wo, nil
}
