package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var asOf = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleReport() *services.AgingReport {
	buckets := []string{"0-7d", "8-30d"}
	return &services.AgingReport{
		Strategy: entities.FIFO,
		AsOf:     asOf,
		Buckets:  buckets,
		Rows: []services.AgingRow{{
			ProductCode: "FLOUR", ProductName: "Wheat flour", UOM: "KG",
			Buckets: []services.AgingBucket{
				{Label: "0-7d", Quantity: dec("40"), LPCount: 1},
				{Label: "8-30d", Quantity: dec("60"), LPCount: 2},
			},
			TotalQuantity: dec("100"), TotalLPs: 3, TotalValue: dec("80"),
			OldestLPNumber: "LP00000001", OldestAgeDays: 21,
		}},
		Totals: []services.AgingBucket{
			{Label: "0-7d", Quantity: dec("40"), LPCount: 1},
			{Label: "8-30d", Quantity: dec("60"), LPCount: 2},
		},
		TotalQuantity: dec("100"), TotalValue: dec("80"), TotalLPs: 3,
	}
}

func TestAging_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Aging(sampleReport(), Config{Format: FormatText, Writer: &buf}))
	out := buf.String()
	assert.Contains(t, out, "Inventory Aging (FIFO) as of 2025-03-10")
	assert.Contains(t, out, "LP00000001 (21d)")
	assert.Contains(t, out, "Total value: 80.00")
}

func TestAging_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Aging(sampleReport(), Config{Format: FormatCSV, Writer: &buf}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"product_code", "product_name", "uom", "0-7d_qty", "0-7d_lps", "8-30d_qty", "8-30d_lps",
		"total_quantity", "total_lps", "total_value", "oldest_lp_number", "oldest_age_days"}, records[0])
	assert.Equal(t, []string{"FLOUR", "Wheat flour", "KG", "40", "1", "60", "2", "100", "3", "80.00", "LP00000001", "21"}, records[1])
}

func TestAging_UnsupportedFormat(t *testing.T) {
	err := Aging(sampleReport(), Config{Format: "xml", Writer: &bytes.Buffer{}})
	assert.EqualError(t, err, "unsupported output format: xml")
	err = Aging(sampleReport(), Config{Format: FormatSVG, Writer: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestTrace_TextTree(t *testing.T) {
	root := uuid.New()
	dough := uuid.New()
	bread := uuid.New()
	tree := &dto.GenealogyTree{
		Root: dto.TraceNode{LPID: root, LPNumber: "LP00000001", ProductCode: "FLOUR", Quantity: dec("100"), UOM: "KG",
			Status: entities.LPAvailable, QAStatus: entities.QAPassed},
		Descendants: &dto.TraceResult{
			RootLPID:   root,
			Direction:  entities.TraceForward,
			TotalCount: 2,
			Nodes: []dto.TraceNode{
				{LPID: dough, LPNumber: "LP00000002", ProductCode: "DOUGH", Quantity: dec("10"), UOM: "KG",
					OperationType: entities.OpConsume, LinkQuantity: dec("8"), Depth: 1},
				{LPID: bread, LPNumber: "LP00000003", ProductCode: "BREAD", Quantity: dec("20"), UOM: "EA",
					OperationType: entities.OpConsume, LinkQuantity: dec("10"), Depth: 2, ParentID: &dough},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Trace(tree, Config{Format: FormatText, Writer: &buf}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "LP00000001 FLOUR 100 KG"))
	assert.Equal(t, "Used in (2):", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "└── LP00000002 DOUGH"))
	assert.True(t, strings.HasPrefix(lines[4], "    └── LP00000003 BREAD"))

	buf.Reset()
	require.NoError(t, Trace(tree, Config{Format: FormatCSV, Writer: &buf}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "forward", records[1][0])
}

func sampleGantt() *planning.Gantt {
	item := func(wo string, start time.Time, hours int, status entities.WOStatus, progress int) planning.GanttItem {
		return planning.GanttItem{
			WONumber: wo, ProductCode: "BREAD", Status: status, LineCode: "LINE-1",
			Start: start, End: start.Add(time.Duration(hours) * time.Hour),
			PlannedQty: dec("100"), ProducedQty: decimal.Zero, ProgressPercent: progress,
		}
	}
	return &planning.Gantt{
		Swimlanes: []planning.Swimlane{
			{LineCode: "LINE-1", Items: []planning.GanttItem{
				item("WO-2025-00001", asOf, 8, entities.WOInProgress, 50),
				item("WO-2025-00002", asOf.Add(8*time.Hour), 8, entities.WOPlanned, 0),
			}},
		},
		Total: 2,
	}
}

func TestGantt_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Gantt(sampleGantt(), Config{Format: FormatText, Writer: &buf}))
	out := buf.String()
	assert.Contains(t, out, "LINE-1\n")
	assert.Contains(t, out, "WO-2025-00001 BREAD")
	assert.Contains(t, out, "in_progress 50%")

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "WO-2025-00001") {
			// first half of the axis, half of it produced
			assert.Contains(t, line, "|"+strings.Repeat("#", 15)+strings.Repeat("=", 15)+strings.Repeat(" ", 30)+"|")
		}
	}
}

func TestGantt_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Gantt(&planning.Gantt{}, Config{Format: FormatText, Writer: &buf}))
	assert.Equal(t, "No scheduled work orders\n", buf.String())

	buf.Reset()
	require.NoError(t, Gantt(&planning.Gantt{}, Config{Format: FormatSVG, Writer: &buf}))
	assert.Contains(t, buf.String(), "No Scheduled Work Orders")
}

func TestGantt_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Gantt(sampleGantt(), Config{Format: FormatSVG, Writer: &buf}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 2, strings.Count(out, `class="wo-bar"`))
	assert.Contains(t, out, statusColor(entities.WOInProgress))
}
