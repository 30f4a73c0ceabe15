package main

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jdginn/go-roomsim/room/experiment"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := range header {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func seconds(s float64) string {
	if s == 0 || math.IsNaN(s) {
		return "-"
	}
	return fmt.Sprintf("%.3f s", s)
}

// metricsTable renders one row of room acoustic metrics per (microphone, source) pair
func metricsTable(summary experiment.Summary) string {
	headers := []string{"Mic", "Source", "RT60", "EDT", "C50", "C80", "D50", "ITDG", "Note"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(summary.Pairs))
	for _, p := range summary.Pairs {
		mic := fmt.Sprint(p.Mic)
		if p.MicName != "" {
			mic = p.MicName
		}
		note := p.Error
		if note == "" && p.Incomplete {
			note = "decay incomplete"
		}
		rows = append(rows, []string{
			mic,
			fmt.Sprint(p.Source),
			seconds(p.Metrics.RT60),
			seconds(p.Metrics.EDT),
			fmt.Sprintf("%.1f dB", p.Metrics.C50),
			fmt.Sprintf("%.1f dB", p.Metrics.C80),
			fmt.Sprintf("%.2f", p.Metrics.D50),
			fmt.Sprintf("%.1f ms", p.ITDG*1000),
			note,
		})
	}
	return renderTable(headers, rows, aligns)
}

// bandTable renders the predicted reverberation time per octave band
func bandTable(summary experiment.Summary) string {
	if len(summary.SabineRT60) == 0 {
		return ""
	}
	rows := make([][]string, len(summary.Bands))
	for b, f := range summary.Bands {
		eyring := "-"
		if b < len(summary.EyringRT60) {
			eyring = seconds(summary.EyringRT60[b])
		}
		rows[b] = []string{fmt.Sprintf("%g Hz", f), seconds(summary.SabineRT60[b]), eyring}
	}
	return renderTable([]string{"Band", "Sabine", "Eyring"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}
