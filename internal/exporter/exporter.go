package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"uascope/internal/graph"
)

// The exporter writes graph channel histories to CSV, JSON, or Excel. Rows
// are sample indices, columns are channels; channels shorter than the widest
// one leave their trailing cells empty.

// WriteCSV writes the channel histories as CSV with one column per channel.
func WriteCSV(w io.Writer, snaps []graph.ChannelSnapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(snaps)+1)
	header = append(header, "Sample")
	for _, s := range snaps {
		header = append(header, columnTitle(s))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for row := 0; row < maxSamples(snaps); row++ {
		record := make([]string, 0, len(snaps)+1)
		record = append(record, strconv.Itoa(row))
		for _, s := range snaps {
			if row < len(s.Samples) {
				record = append(record, strconv.FormatFloat(s.Samples[row], 'g', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the channel histories as an indented JSON array.
func WriteJSON(w io.Writer, snaps []graph.ChannelSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snaps)
}

// ExportToCSV writes the channel histories to a CSV file.
func ExportToCSV(filePath string, snaps []graph.ChannelSnapshot) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, snaps); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return f.Close()
}

// ExportToJSON writes the channel histories to a JSON file.
func ExportToJSON(filePath string, snaps []graph.ChannelSnapshot) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteJSON(f, snaps); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return f.Close()
}

// ExportToExcel writes the channel histories to an Excel workbook with a
// header row describing each channel.
func ExportToExcel(filePath string, snaps []graph.ChannelSnapshot) error {
	f := excelize.NewFile()
	sheetName := "Graph Channels"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	f.SetCellValue(sheetName, cell, "Sample")
	for i, s := range snaps {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		f.SetCellValue(sheetName, cell, columnTitle(s))
	}

	for row := 0; row < maxSamples(snaps); row++ {
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		f.SetCellValue(sheetName, cell, row)
		for col, s := range snaps {
			if row >= len(s.Samples) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, row+2)
			f.SetCellValue(sheetName, cell, s.Samples[row])
		}
	}

	return f.SaveAs(filePath)
}

func columnTitle(s graph.ChannelSnapshot) string {
	title := s.Name
	if title == "" {
		title = s.NodeID
	}
	if s.Mode != "" {
		title = fmt.Sprintf("%s (%s)", title, s.Mode)
	}
	return title
}

func maxSamples(snaps []graph.ChannelSnapshot) int {
	max := 0
	for _, s := range snaps {
		if len(s.Samples) > max {
			max = len(s.Samples)
		}
	}
	return max
}
