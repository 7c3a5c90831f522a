// Package report renders finished run products for humans and files. It
// adds no analysis of its own; everything here is formatting.
package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

// ConsoleSink renders the products bundle as terminal tables. It
// implements pipeline.Sink.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink renders to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Persist renders every section of the bundle.
func (s *ConsoleSink) Persist(_ context.Context, products *pipeline.Products) error {
	fmt.Fprintf(s.out, "source: %s\ngenerated: %s\nrows: %d (null timestamps: %d, malformed values: %d)\n",
		products.Source,
		products.GeneratedAt.Format(time.RFC3339),
		products.Stats.RowsTotal,
		products.Stats.NullTimestamps,
		products.Stats.MalformedValues)

	s.renderDaily(products.Daily)
	s.renderMonthly(products.Monthly)
	s.renderEvents(products.Events)
	s.renderMissing(products.Missing)
	s.renderSummary(products.Summary)
	for _, ranking := range products.Rankings {
		s.renderRanking(ranking)
	}
	return nil
}

// RenderDaily exposes the daily table renderer to subcommands that only
// produce this one section.
func (s *ConsoleSink) RenderDaily(t *domain.DailyTable) {
	s.renderDaily(t)
}

// RenderEvents exposes the event list renderer.
func (s *ConsoleSink) RenderEvents(events []domain.ExtremeEvent) {
	s.renderEvents(events)
}

// RenderMissing exposes the missingness renderer.
func (s *ConsoleSink) RenderMissing(rows []domain.MissingnessRow) {
	s.renderMissing(rows)
}

// RenderSummary exposes the summary renderer.
func (s *ConsoleSink) RenderSummary(rows []domain.SummaryRow) {
	s.renderSummary(rows)
}

// RenderHourlyProfile prints a variable's mean per hour of day.
func (s *ConsoleSink) RenderHourlyProfile(p domain.HourlyProfile) {
	tw := s.newTable(fmt.Sprintf("diurnal cycle of %s", p.Variable))
	tw.AppendHeader(table.Row{"hour", "mean"})
	for hour, mean := range p.Means {
		tw.AppendRow(table.Row{fmt.Sprintf("%02d", hour), cell(mean)})
	}
	tw.Render()
}

func (s *ConsoleSink) newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(s.out)
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

func (s *ConsoleSink) renderDaily(t *domain.DailyTable) {
	if t == nil {
		return
	}
	tw := s.newTable("daily aggregates")

	header := table.Row{"date"}
	for _, col := range t.Columns {
		header = append(header, col)
	}
	tw.AppendHeader(header)

	for i, date := range t.Dates {
		row := table.Row{date.Format(time.DateOnly)}
		for _, col := range t.Columns {
			row = append(row, cell(t.Cells[col][i]))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func (s *ConsoleSink) renderMonthly(monthly []domain.MonthlyAggregate) {
	if len(monthly) == 0 {
		return
	}
	tw := s.newTable("monthly aggregates")
	tw.AppendHeader(table.Row{"year", "month", "column", "value"})
	for _, m := range monthly {
		tw.AppendRow(table.Row{m.Year, int(m.Month), domain.ColumnName(m.Reducer, m.Variable), cell(m.Value)})
	}
	tw.Render()
}

func (s *ConsoleSink) renderEvents(events []domain.ExtremeEvent) {
	tw := s.newTable("extreme events")
	tw.AppendHeader(table.Row{"kind", "start", "end", "days", "extreme", "mean"})
	for _, e := range events {
		tw.AppendRow(table.Row{
			string(e.Kind),
			e.StartDate.Format(time.DateOnly),
			e.EndDate.Format(time.DateOnly),
			e.DurationDays,
			formatFloat(e.ExtremeValue),
			formatFloat(e.MeanValue),
		})
	}
	tw.Render()
}

func (s *ConsoleSink) renderMissing(rows []domain.MissingnessRow) {
	if len(rows) == 0 {
		return
	}
	tw := s.newTable("missing data")
	tw.AppendHeader(table.Row{"variable", "null_count", "null_pct"})
	for _, r := range rows {
		tw.AppendRow(table.Row{string(r.Variable), r.NullCount, formatFloat(r.NullPct)})
	}
	tw.Render()
}

func (s *ConsoleSink) renderSummary(rows []domain.SummaryRow) {
	if len(rows) == 0 {
		return
	}
	tw := s.newTable("summary statistics")
	tw.AppendHeader(table.Row{"variable", "count", "mean", "std", "cv", "min", "q1", "median", "q3", "max"})
	for _, r := range rows {
		tw.AppendRow(table.Row{
			string(r.Variable), r.Count,
			cell(r.Mean), cell(r.Std), cell(r.CV), cell(r.Min), cell(r.Q1), cell(r.Median), cell(r.Q3), cell(r.Max),
		})
	}
	tw.Render()
}

func (s *ConsoleSink) renderRanking(ranking pipeline.Ranking) {
	tw := s.newTable(ranking.Title)
	tw.AppendHeader(table.Row{"date", "value"})
	for _, d := range ranking.Days {
		tw.AppendRow(table.Row{d.Date.Format(time.DateOnly), cell(d.Value)})
	}
	tw.Render()
}

// cell renders an optional value; missing data stays an empty cell, never
// a zero.
func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
