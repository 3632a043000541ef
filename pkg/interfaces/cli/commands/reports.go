package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/inventory"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	"github.com/vsinha/monopilot/pkg/infrastructure/logger"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/monopilot/pkg/interfaces/cli/output"
)

// ReportFlags are shared by the offline report commands, which load a CSV
// seed directory into a throwaway in-memory store
type ReportFlags struct {
	Dir    string `arg:"" help:"directory of CSV seed files" type:"existingdir"`
	AsOf   string `help:"evaluate as of this date (YYYY-MM-DD), default now" name:"as-of"`
	Format string `help:"output format" default:"text" enum:"text,json,csv" short:"f"`

	out io.Writer
}

func (f *ReportFlags) writer() io.Writer {
	if f.out == nil {
		return os.Stdout
	}
	return f.out
}

func (f *ReportFlags) asOf() (*time.Time, error) {
	if f.AsOf == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", f.AsOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q: %w", f.AsOf, err)
	}
	return &t, nil
}

// load imports the seed directory into a fresh organization
func (f *ReportFlags) load(ctx context.Context, globals *Globals) (context.Context, *orchestration.Services, uuid.UUID, error) {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	asOf, err := f.asOf()
	if err != nil {
		return ctx, nil, uuid.Nil, err
	}
	store := memory.NewStore()
	be := &backend{repos: store.Repositories(), close: func() {}}
	svc := orchestration.New(be.repos, events.Discard{})
	if asOf != nil {
		svc.SetClock(func() time.Time { return *asOf })
	}
	orgID, _, err := seedOrganization(ctx, svc, be, f.Dir, "Offline")
	return ctx, svc, orgID, err
}

// AgingCmd prints the FIFO or FEFO aging report of the seed data
type AgingCmd struct {
	ReportFlags
	Strategy string `help:"FIFO buckets by receipt age, FEFO by time to expiry" default:"FIFO" enum:"FIFO,FEFO"`
	Product  string `help:"only this product code"`
}

func (c *AgingCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, svc, orgID, err := c.load(ctx, globals)
	if err != nil {
		return err
	}
	var filters inventory.Filters
	if c.Product != "" {
		products, err := svc.Catalog.ListProducts(ctx, orgID)
		if err != nil {
			return err
		}
		for _, p := range products {
			if p.Code == c.Product {
				filters.ProductID = &p.ID
			}
		}
		if filters.ProductID == nil {
			return entities.NotFoundError("product %s not found", c.Product)
		}
	}
	report, err := svc.Inventory.Aging(ctx, orgID, entities.AllocationStrategy(c.Strategy), filters)
	if err != nil {
		return err
	}
	return output.Aging(report, output.Config{Format: c.Format, Writer: c.writer()})
}

// TraceCmd prints the genealogy tree of one license plate
type TraceCmd struct {
	ReportFlags
	LP              string `help:"license plate number to trace" required:""`
	Direction       string `help:"trace direction" default:"both" enum:"forward,backward,both"`
	MaxDepth        int    `help:"maximum levels to follow" default:"10"`
	IncludeReversed bool   `help:"follow reversed links too"`
}

func (c *TraceCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, svc, orgID, err := c.load(ctx, globals)
	if err != nil {
		return err
	}
	lp, err := svc.LicensePlates.GetByNumber(ctx, orgID, c.LP)
	if err != nil {
		return err
	}
	tree, err := svc.Genealogy.FullTree(ctx, orgID, lp.ID, genealogy.TraceOptions{
		Direction:       entities.TraceDirection(c.Direction),
		MaxDepth:        c.MaxDepth,
		IncludeReversed: c.IncludeReversed,
	})
	if err != nil {
		return err
	}
	return output.Trace(tree, output.Config{Format: c.Format, Writer: c.writer()})
}

// GanttCmd prints the work order schedule by production line
type GanttCmd struct {
	Dir    string   `arg:"" help:"directory of CSV seed files" type:"existingdir"`
	AsOf   string   `help:"evaluate overdue orders as of this date (YYYY-MM-DD), default now" name:"as-of"`
	Format string   `help:"output format" default:"text" enum:"text,json,csv,svg" short:"f"`
	Line   string   `help:"only this production line"`
	Status []string `help:"only these work order statuses"`
	From   string   `help:"window start (YYYY-MM-DD)"`
	To     string   `help:"window end (YYYY-MM-DD)"`

	out io.Writer
}

func (c *GanttCmd) Run(ctx context.Context, globals *Globals) error {
	flags := ReportFlags{Dir: c.Dir, AsOf: c.AsOf, out: c.out}
	ctx, svc, orgID, err := flags.load(ctx, globals)
	if err != nil {
		return err
	}

	req := planning.GanttRequest{LineCode: c.Line}
	for _, s := range c.Status {
		req.Statuses = append(req.Statuses, entities.WOStatus(strings.ToLower(s)))
	}
	for _, bound := range []struct {
		raw string
		dst **time.Time
	}{{c.From, &req.From}, {c.To, &req.To}} {
		if bound.raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", bound.raw)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", bound.raw, err)
		}
		*bound.dst = &t
	}

	g, err := svc.Planning.Gantt(ctx, orgID, req)
	if err != nil {
		return err
	}
	return output.Gantt(g, output.Config{Format: c.Format, Writer: flags.writer()})
}
