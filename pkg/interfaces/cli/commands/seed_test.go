package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/csv"
)

var seedFiles = map[string]string{
	csv.LocationsFile: `warehouse_code,location_code,name,type
MAIN,MAIN-A1,Aisle 1,shelf
COLD,COLD-01,Cold room,bulk
`,
	csv.ProductsFile: `code,name,type,uom,unit_cost,unit_price,shelf_life_days
FLOUR,Wheat flour,raw,KG,0.80,,180
YEAST,Dry yeast,raw,KG,4.00,,
BREAD,White loaf,finished,EA,0.50,2.50,5
`,
	csv.BOMsFile: `product_code,output_qty,component_code,quantity,scrap_pct
BREAD,10,FLOUR,5,
BREAD,10,YEAST,0.1,2
`,
	csv.LicensePlatesFile: `lp_number,product_code,quantity,location_code,status,qa_status,batch_number,received_date,expiry_date
LP00000001,FLOUR,100,MAIN-A1,available,passed,F-24-001,2024-01-02,
LP00000002,YEAST,5,COLD-01,available,passed,Y-23-114,2023-10-01,2024-10-01
LP00000003,BREAD,40,MAIN-A1,available,pending,B-24-010,2024-01-10,
LP00000004,FLOUR,10,MAIN-A1,consumed,passed,F-23-090,2023-12-01,
`,
	csv.GenealogyFile: `parent_lp,child_lp,operation_type,quantity
LP00000001,LP00000003,consume,20
LP00000002,LP00000003,consume,0.4
`,
	csv.WorkOrdersFile: `wo_number,product_code,planned_qty,produced_qty,status,line_code,scheduled_start,scheduled_end
WO-2024-00007,BREAD,100,40,in_progress,LINE-1,2024-01-10T06:00:00Z,2024-01-10T14:00:00Z
`,
}

// writeSeed writes the bakery seed files into a temp dir
func writeSeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range seedFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
