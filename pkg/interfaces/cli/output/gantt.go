package output

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// FormatSVG renders the schedule as an SVG image
const FormatSVG = "svg"

// textWidth is the number of columns the ASCII time axis spans
const textWidth = 60

// Gantt renders a production schedule
func Gantt(g *planning.Gantt, cfg Config) error {
	if err := cfg.check(FormatSVG); err != nil {
		return err
	}
	switch cfg.Format {
	case FormatJSON:
		return writeJSON(cfg.Writer, g)
	case FormatCSV:
		return ganttCSV(g, cfg.Writer)
	case FormatSVG:
		_, err := io.WriteString(cfg.Writer, NewGanttChart(g).GenerateSVG(g))
		return err
	default:
		return ganttText(g, cfg.Writer)
	}
}

// bounds returns the earliest start and latest end of every item
func bounds(g *planning.Gantt) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, lane := range g.Swimlanes {
		for _, it := range lane.Items {
			if !found || it.Start.Before(start) {
				start = it.Start
			}
			if !found || it.End.After(end) {
				end = it.End
			}
			found = true
		}
	}
	return start, end, found
}

func ganttText(g *planning.Gantt, w io.Writer) error {
	start, end, ok := bounds(g)
	if !ok {
		_, err := fmt.Fprintln(w, "No scheduled work orders")
		return err
	}
	span := end.Sub(start)
	if span <= 0 {
		span = time.Hour
	}
	col := func(t time.Time) int {
		c := int(math.Round(float64(t.Sub(start)) / float64(span) * textWidth))
		return max(0, min(textWidth, c))
	}

	const label = 24
	fmt.Fprintf(w, "Production Schedule %s .. %s (%d work orders)\n\n",
		start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"), g.Total)
	fmt.Fprintf(w, "%-*s|%-*s|\n", label, "", textWidth, start.Format("Jan 2"))
	fmt.Fprintf(w, "%-*s|%*s|\n", label, "", textWidth, end.Format("Jan 2"))

	for _, lane := range g.Swimlanes {
		fmt.Fprintf(w, "%s\n", lane.LineCode)
		for _, it := range lane.Items {
			from, to := col(it.Start), col(it.End)
			if to <= from {
				to = from + 1
			}
			if to > textWidth {
				from, to = textWidth-1, textWidth
			}
			done := min(to, from+(to-from)*it.ProgressPercent/100)

			var bar strings.Builder
			bar.WriteString(strings.Repeat(" ", from))
			bar.WriteString(strings.Repeat("#", done-from))
			bar.WriteString(strings.Repeat("=", to-done))
			bar.WriteString(strings.Repeat(" ", textWidth-to))

			flag := ""
			if it.IsOverdue {
				flag = " OVERDUE"
			}
			name := it.WONumber + " " + it.ProductCode
			if len(name) > label-2 {
				name = name[:label-2]
			}
			fmt.Fprintf(w, "  %-*s|%s| %s %d%%%s\n", label-2, name, bar.String(), it.Status, it.ProgressPercent, flag)
		}
	}
	_, err := fmt.Fprintln(w, "\n# produced  = remaining")
	return err
}

func ganttCSV(g *planning.Gantt, w io.Writer) error {
	header := []string{"line_code", "wo_number", "product_code", "status", "priority", "scheduled_start", "scheduled_end", "planned_qty", "produced_qty", "progress_percent", "is_overdue"}
	var rows [][]string
	for _, lane := range g.Swimlanes {
		for _, it := range lane.Items {
			rows = append(rows, []string{
				lane.LineCode,
				it.WONumber,
				it.ProductCode,
				string(it.Status),
				string(it.Priority),
				it.Start.Format(time.RFC3339),
				it.End.Format(time.RFC3339),
				it.PlannedQty.String(),
				it.ProducedQty.String(),
				strconv.Itoa(it.ProgressPercent),
				strconv.FormatBool(it.IsOverdue),
			})
		}
	}
	return writeCSV(w, header, rows)
}

// GanttChart lays out an SVG schedule with one row per production line
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time
}

// GanttBar is one work order placed on the chart
type GanttBar struct {
	Item  planning.GanttItem
	X     int
	Width int
	Color string
}

// NewGanttChart sizes a chart for g
func NewGanttChart(g *planning.Gantt) *GanttChart {
	start, end, ok := bounds(g)
	if !ok {
		return &GanttChart{
			Width:        800,
			Height:       200,
			MarginLeft:   150,
			MarginTop:    50,
			MarginRight:  50,
			MarginBottom: 50,
			RowHeight:    25,
		}
	}

	padding := end.Sub(start) / 10
	if padding == 0 {
		padding = time.Hour
	}

	rowHeight := 30
	return &GanttChart{
		Width:        1200,
		Height:       len(g.Swimlanes)*rowHeight + 160,
		MarginLeft:   160,
		MarginTop:    60,
		MarginRight:  100,
		MarginBottom: 80,
		RowHeight:    rowHeight,
		StartTime:    start.Add(-padding),
		EndTime:      end.Add(padding),
	}
}

// GenerateSVG draws the chart
func (gc *GanttChart) GenerateSVG(g *planning.Gantt) string {
	if g.Total == 0 || len(g.Swimlanes) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height)
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.lane-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.wo-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.overdue { stroke: #D32F2F; stroke-width: 2; }`)
	svg.WriteString(`.wo-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style></defs>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Production Schedule</text>`, gc.Width/2)

	gridBottom := gc.MarginTop + len(g.Swimlanes)*gc.RowHeight
	gc.drawTimeAxis(&svg, gridBottom)

	for i, lane := range g.Swimlanes {
		y := gc.MarginTop + i*gc.RowHeight
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="lane-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-15, y+gc.RowHeight/2+4, html.EscapeString(lane.LineCode))
		fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+gc.RowHeight, gc.Width-gc.MarginRight, y+gc.RowHeight)
		for _, it := range lane.Items {
			gc.drawBar(&svg, gc.bar(it), y)
		}
	}

	gc.drawLegend(&svg)
	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) x(t time.Time) int {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	total := gc.EndTime.Sub(gc.StartTime)
	return gc.MarginLeft + int(float64(t.Sub(gc.StartTime))/float64(total)*float64(chartWidth))
}

func (gc *GanttChart) bar(it planning.GanttItem) GanttBar {
	x := gc.x(it.Start)
	width := gc.x(it.End) - x
	if width < 2 {
		width = 2
	}
	return GanttBar{Item: it, X: x, Width: width, Color: statusColor(it.Status)}
}

// drawTimeAxis labels the axis daily, weekly or monthly depending on span
func (gc *GanttChart) drawTimeAxis(svg *strings.Builder, gridBottom int) {
	days := int(math.Ceil(gc.EndTime.Sub(gc.StartTime).Hours() / 24))
	interval, format := 24*time.Hour, "Jan 2"
	if days > 180 {
		interval, format = 30*24*time.Hour, "Jan 2006"
	} else if days > 30 {
		interval = 7 * 24 * time.Hour
	}

	for t := gc.StartTime.Truncate(interval); t.Before(gc.EndTime); t = t.Add(interval) {
		x := gc.x(t)
		if x < gc.MarginLeft || x > gc.Width-gc.MarginRight {
			continue
		}
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`, x, gc.MarginTop, x, gridBottom)
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`,
			x, gridBottom+15, t.Format(format))
	}
	fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, gridBottom, gc.Width-gc.MarginRight, gridBottom)
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY int) {
	barHeight := gc.RowHeight - 4
	barY := rowY + 2
	class := "wo-bar"
	if bar.Item.IsOverdue {
		class = "wo-bar overdue"
	}

	fmt.Fprintf(svg, `<g><rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="%s"/>`,
		bar.X, barY, bar.Width, barHeight, bar.Color, class)
	if done := bar.Width * bar.Item.ProgressPercent / 100; done > 0 {
		fmt.Fprintf(svg, `<rect x="%d" y="%d" width="%d" height="4" fill="#1B5E20"/>`,
			bar.X, barY+barHeight-4, done)
	}
	if bar.Width > 60 {
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="wo-text" text-anchor="middle">%s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, html.EscapeString(bar.Item.WONumber))
	}
	fmt.Fprintf(svg, `<title>%s</title></g>`, html.EscapeString(fmt.Sprintf("%s %s, Qty: %s, %s - %s, %s %d%%",
		bar.Item.WONumber, bar.Item.ProductCode, bar.Item.PlannedQty.String(),
		bar.Item.Start.Format("2006-01-02 15:04"), bar.Item.End.Format("2006-01-02 15:04"),
		bar.Item.Status, bar.Item.ProgressPercent)))
}

var legend = []entities.WOStatus{
	entities.WOPlanned, entities.WOReleased, entities.WOInProgress, entities.WOOnHold, entities.WOCompleted,
}

func (gc *GanttChart) drawLegend(svg *strings.Builder) {
	legendX := gc.Width - gc.MarginRight - 150
	legendY := gc.Height - gc.MarginBottom + 25
	for i, status := range legend {
		x := legendX - (len(legend)-1-i)*110
		fmt.Fprintf(svg, `<rect x="%d" y="%d" width="12" height="8" fill="%s"/>`, x, legendY, statusColor(status))
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label">%s</text>`, x+18, legendY+8, status)
	}
}

func statusColor(status entities.WOStatus) string {
	switch status {
	case entities.WOPlanned:
		return "#90A4AE"
	case entities.WOReleased:
		return "#2196F3"
	case entities.WOInProgress:
		return "#4CAF50"
	case entities.WOOnHold:
		return "#FF9800"
	case entities.WOCompleted, entities.WOClosed:
		return "#607D8B"
	default:
		return "#9E9E9E"
	}
}

func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Scheduled Work Orders</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}
