// Package report writes the obligation register workbook: every
// relationship from the new graph on one sheet, plus per-change-class
// sheets when a diff against the old graph is available.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/regscope/regscope/graph"
)

var registerHeader = []string{
	"Source", "Target", "Relation", "Condition", "Optionality", "Frequency",
}

// WriteRegister writes the register workbook to path. diff may be nil
// for first-time uploads with no old graph; only the Register sheet is
// written then.
func WriteRegister(path string, newG *graph.CanonicalGraph, diff *graph.EdgeDiff) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Register", newG.Edges); err != nil {
		return err
	}
	// excelize seeds a default "Sheet1"; our first sheet replaces it.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if diff != nil {
		for _, class := range []struct {
			name  string
			edges []graph.CanonicalEdge
		}{
			{"Common", diff.Common},
			{"Added", diff.Added},
			{"Removed", diff.Removed},
		} {
			if err := writeSheet(f, class.name, class.edges); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving register workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, edges []graph.CanonicalEdge) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	for col, h := range registerHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeaderCell := "F1"
	if err := f.SetCellStyle(name, "A1", lastHeaderCell, boldStyle); err != nil {
		return err
	}

	for i, e := range edges {
		values := []string{e.Source, e.Target, e.Relation, e.Condition, e.Optionality, e.Frequency}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}

	return nil
}
