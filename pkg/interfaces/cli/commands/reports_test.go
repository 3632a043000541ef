package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

func TestAgingCmd(t *testing.T) {
	dir := writeSeed(t)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &AgingCmd{ReportFlags: ReportFlags{Dir: dir, AsOf: "2024-02-01", Format: "text", out: &out}, Strategy: "FIFO"}
		require.NoError(t, cmd.Run(context.Background(), &Globals{}))
		assert.Contains(t, out.String(), "Inventory Aging (FIFO) as of 2024-02-01")
		assert.Contains(t, out.String(), "FLOUR")
		assert.Contains(t, out.String(), "YEAST")
	})

	t.Run("json excludes consumed plates", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &AgingCmd{ReportFlags: ReportFlags{Dir: dir, AsOf: "2024-02-01", Format: "json", out: &out}, Strategy: "FIFO"}
		require.NoError(t, cmd.Run(context.Background(), &Globals{}))

		var report services.AgingReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, entities.FIFO, report.Strategy)
		assert.Equal(t, 3, report.TotalLPs)
	})

	t.Run("product filter", func(t *testing.T) {
		var out bytes.Buffer
		cmd := &AgingCmd{ReportFlags: ReportFlags{Dir: dir, AsOf: "2024-02-01", Format: "json", out: &out}, Strategy: "FEFO", Product: "YEAST"}
		require.NoError(t, cmd.Run(context.Background(), &Globals{}))

		var report services.AgingReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		require.Len(t, report.Rows, 1)
		assert.Equal(t, "YEAST", report.Rows[0].ProductCode)
	})

	t.Run("unknown product", func(t *testing.T) {
		cmd := &AgingCmd{ReportFlags: ReportFlags{Dir: dir, Format: "text", out: &bytes.Buffer{}}, Strategy: "FIFO", Product: "SALT"}
		err := cmd.Run(context.Background(), &Globals{})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("bad as-of", func(t *testing.T) {
		cmd := &AgingCmd{ReportFlags: ReportFlags{Dir: dir, AsOf: "01/02/2024", Format: "text", out: &bytes.Buffer{}}, Strategy: "FIFO"}
		err := cmd.Run(context.Background(), &Globals{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --as-of")
	})
}

func TestTraceCmd(t *testing.T) {
	dir := writeSeed(t)

	var out bytes.Buffer
	cmd := &TraceCmd{
		ReportFlags: ReportFlags{Dir: dir, AsOf: "2024-02-01", Format: "text", out: &out},
		LP:          "LP00000003",
		Direction:   "backward",
		MaxDepth:    10,
	}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	assert.Contains(t, out.String(), "LP00000003")
	assert.Contains(t, out.String(), "Made from (2):")
	assert.Contains(t, out.String(), "LP00000001")
	assert.Contains(t, out.String(), "LP00000002")

	out.Reset()
	cmd.Format = "json"
	cmd.Direction = "forward"
	cmd.LP = "LP00000001"
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	var tree dto.GenealogyTree
	require.NoError(t, json.Unmarshal(out.Bytes(), &tree))
	require.NotNil(t, tree.Descendants)
	assert.Equal(t, 1, tree.Descendants.TotalCount)
	assert.Nil(t, tree.Ancestors)

	cmd.LP = "LP99999999"
	assert.ErrorIs(t, cmd.Run(context.Background(), &Globals{}), entities.ErrNotFound)
}

func TestGanttCmd(t *testing.T) {
	dir := writeSeed(t)

	var out bytes.Buffer
	cmd := &GanttCmd{Dir: dir, AsOf: "2024-02-01", Format: "text", out: &out}
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	assert.Contains(t, out.String(), "LINE-1")
	assert.Contains(t, out.String(), "WO-2024-00007")

	out.Reset()
	cmd.Format = "svg"
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	assert.Contains(t, out.String(), "<svg")

	out.Reset()
	cmd.Format = "text"
	cmd.Line = "LINE-9"
	require.NoError(t, cmd.Run(context.Background(), &Globals{}))
	assert.Contains(t, out.String(), "No scheduled work orders")

	cmd.Line = ""
	cmd.From = "2024-03-01"
	cmd.To = "2024-02-01"
	assert.ErrorIs(t, cmd.Run(context.Background(), &Globals{}), entities.ErrValidation)
}
