package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// Formats every report supports
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	Writer io.Writer
}

func (c Config) check(extra ...string) error {
	switch c.Format {
	case FormatText, FormatJSON, FormatCSV:
		return nil
	}
	for _, f := range extra {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s", c.Format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// Aging renders an inventory aging report
func Aging(report *services.AgingReport, cfg Config) error {
	if err := cfg.check(); err != nil {
		return err
	}
	switch cfg.Format {
	case FormatJSON:
		return writeJSON(cfg.Writer, report)
	case FormatCSV:
		return agingCSV(report, cfg.Writer)
	default:
		return agingText(report, cfg.Writer)
	}
}

func agingText(r *services.AgingReport, w io.Writer) error {
	fmt.Fprintf(w, "Inventory Aging (%s) as of %s\n", r.Strategy, r.AsOf.Format("2006-01-02"))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 40))

	fmt.Fprintf(w, "%-15s %-6s", "Product", "UOM")
	for _, b := range r.Buckets {
		fmt.Fprintf(w, " %12s", b)
	}
	fmt.Fprintf(w, " %12s %6s %-14s\n", "Total", "LPs", "Oldest")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 15+7+13*len(r.Buckets)+13+7+15))

	for _, row := range r.Rows {
		fmt.Fprintf(w, "%-15s %-6s", row.ProductCode, row.UOM)
		for _, b := range row.Buckets {
			fmt.Fprintf(w, " %12s", b.Quantity.String())
		}
		oldest := ""
		if row.OldestLPNumber != "" {
			oldest = fmt.Sprintf("%s (%dd)", row.OldestLPNumber, row.OldestAgeDays)
		}
		fmt.Fprintf(w, " %12s %6d %-14s\n", row.TotalQuantity.String(), row.TotalLPs, oldest)
	}

	fmt.Fprintf(w, "%-15s %-6s", "TOTAL", "")
	for _, b := range r.Totals {
		fmt.Fprintf(w, " %12s", b.Quantity.String())
	}
	fmt.Fprintf(w, " %12s %6d\n", r.TotalQuantity.String(), r.TotalLPs)
	_, err := fmt.Fprintf(w, "\nTotal value: %s\n", r.TotalValue.StringFixed(2))
	return err
}

func agingCSV(r *services.AgingReport, w io.Writer) error {
	header := []string{"product_code", "product_name", "uom"}
	for _, b := range r.Buckets {
		header = append(header, b+"_qty", b+"_lps")
	}
	header = append(header, "total_quantity", "total_lps", "total_value", "oldest_lp_number", "oldest_age_days")

	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := []string{row.ProductCode, row.ProductName, row.UOM}
		for _, b := range row.Buckets {
			rec = append(rec, b.Quantity.String(), strconv.Itoa(b.LPCount))
		}
		rec = append(rec,
			row.TotalQuantity.String(),
			strconv.Itoa(row.TotalLPs),
			row.TotalValue.StringFixed(2),
			row.OldestLPNumber,
			strconv.Itoa(row.OldestAgeDays))
		rows = append(rows, rec)
	}
	return writeCSV(w, header, rows)
}

// Trace renders a genealogy tree
func Trace(tree *dto.GenealogyTree, cfg Config) error {
	if err := cfg.check(); err != nil {
		return err
	}
	switch cfg.Format {
	case FormatJSON:
		return writeJSON(cfg.Writer, tree)
	case FormatCSV:
		return traceCSV(tree, cfg.Writer)
	default:
		return traceText(tree, cfg.Writer)
	}
}

func nodeLabel(n dto.TraceNode) string {
	label := fmt.Sprintf("%s %s %s %s", n.LPNumber, n.ProductCode, n.Quantity.String(), n.UOM)
	if n.BatchNumber != "" {
		label += " batch " + n.BatchNumber
	}
	label += fmt.Sprintf(" [%s/%s]", n.Status, n.QAStatus)
	if n.OperationType != "" {
		label = fmt.Sprintf("%s <%s %s>", label, n.OperationType, n.LinkQuantity.String())
	}
	return label
}

func traceText(tree *dto.GenealogyTree, w io.Writer) error {
	fmt.Fprintf(w, "%s\n", nodeLabel(tree.Root))
	if tree.Ancestors != nil {
		fmt.Fprintf(w, "\nMade from (%d):\n", tree.Ancestors.TotalCount)
		writeBranch(w, tree.Root.LPID, tree.Ancestors)
	}
	if tree.Descendants != nil {
		fmt.Fprintf(w, "\nUsed in (%d):\n", tree.Descendants.TotalCount)
		writeBranch(w, tree.Root.LPID, tree.Descendants)
	}
	return nil
}

// writeBranch prints trace nodes as an indented tree under root
func writeBranch(w io.Writer, root uuid.UUID, res *dto.TraceResult) {
	children := make(map[uuid.UUID][]dto.TraceNode)
	for _, n := range res.Nodes {
		parent := root
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		children[parent] = append(children[parent], n)
	}

	var walk func(id uuid.UUID, prefix string)
	walk = func(id uuid.UUID, prefix string) {
		kids := children[id]
		for i, n := range kids {
			branch, next := "├── ", "│   "
			if i == len(kids)-1 {
				branch, next = "└── ", "    "
			}
			fmt.Fprintf(w, "%s%s%s\n", prefix, branch, nodeLabel(n))
			walk(n.LPID, prefix+next)
		}
	}
	walk(root, "")
	if res.HasMoreLevels {
		fmt.Fprintf(w, "(truncated at depth %d)\n", res.MaxDepth)
	}
}

func traceCSV(tree *dto.GenealogyTree, w io.Writer) error {
	header := []string{"direction", "depth", "lp_number", "product_code", "batch_number", "quantity", "uom", "status", "qa_status", "operation_type", "link_quantity"}
	var rows [][]string
	for _, res := range []*dto.TraceResult{tree.Ancestors, tree.Descendants} {
		if res == nil {
			continue
		}
		for _, n := range res.Nodes {
			rows = append(rows, []string{
				string(res.Direction),
				strconv.Itoa(n.Depth),
				n.LPNumber,
				n.ProductCode,
				n.BatchNumber,
				n.Quantity.String(),
				n.UOM,
				string(n.Status),
				string(n.QAStatus),
				string(n.OperationType),
				n.LinkQuantity.String(),
			})
		}
	}
	return writeCSV(w, header, rows)
}
