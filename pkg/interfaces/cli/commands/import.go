package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	"github.com/vsinha/monopilot/pkg/infrastructure/logger"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/csv"
)

// ImportCmd seeds an organization from a directory of CSV files
type ImportCmd struct {
	Dir     string `arg:"" help:"directory holding products.csv, locations.csv, boms.csv, license_plates.csv, genealogy.csv and work_orders.csv" type:"existingdir"`
	OrgID   string `help:"existing organization to import into" env:"MONOPILOT_ORG_ID" xor:"org"`
	OrgName string `help:"onboard a new organization with this name and import into it" xor:"org"`

	StoreType     string             `help:"store type (memory or postgres)" default:"postgres" env:"MONOPILOT_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *ImportCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	if c.OrgID == "" && c.OrgName == "" {
		return fmt.Errorf("one of --org-id or --org-name is required")
	}

	be, err := openStore(ctx, c.StoreType, &c.PostgresStore)
	if err != nil {
		return err
	}
	defer be.close()
	svc := orchestration.New(be.repos, events.NewRecorder(be.repos.Activity))

	var sum *ImportSummary
	if c.OrgID != "" {
		orgID, err := uuid.Parse(c.OrgID)
		if err != nil {
			return fmt.Errorf("invalid org id %q: %w", c.OrgID, err)
		}
		if _, err := svc.Organizations.Get(ctx, orgID); err != nil {
			return err
		}
		ds, err := csv.NewLoader().LoadDir(c.Dir)
		if err != nil {
			return err
		}
		if sum, err = NewImporter(svc, be.repos).Import(ctx, orgID, ds); err != nil {
			return err
		}
	} else {
		if _, sum, err = seedOrganization(ctx, svc, be, c.Dir, c.OrgName); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

// seedOrganization onboards name and imports dir into it
func seedOrganization(ctx context.Context, svc *orchestration.Services, be *backend, dir, name string) (uuid.UUID, *ImportSummary, error) {
	ds, err := csv.NewLoader().LoadDir(dir)
	if err != nil {
		return uuid.Nil, nil, err
	}
	res, err := svc.Organizations.Onboard(ctx, organization.OnboardRequest{Name: name})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to onboard %s: %w", name, err)
	}
	orgID := res.Organization.ID
	sum, err := NewImporter(svc, be.repos).Import(ctx, orgID, ds)
	if err != nil {
		return orgID, sum, err
	}
	return orgID, sum, nil
}
