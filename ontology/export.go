package ontology

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the ontology to an Excel workbook with three sheets:
// Entities, Relations, and Statistics.
func ExportXLSX(path string, o *Ontology) error {
	f := excelize.NewFile()
	defer f.Close()

	const entitiesSheet = "Entities"
	// NewFile starts with one default sheet; rename it instead of leaving
	// an empty Sheet1 behind.
	if err := f.SetSheetName("Sheet1", entitiesSheet); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}

	writeRow := func(sheet string, row int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(entitiesSheet, 1, []interface{}{"Name", "Kind", "Mentions", "Relations"}); err != nil {
		return fmt.Errorf("writing entities header: %w", err)
	}
	for i, name := range o.EntityNames() {
		e := o.Entities[name]
		if err := writeRow(entitiesSheet, i+2, []interface{}{e.Name, string(e.Kind), e.MentionCount, e.TotalRelations}); err != nil {
			return fmt.Errorf("writing entity row: %w", err)
		}
	}

	const relationsSheet = "Relations"
	if _, err := f.NewSheet(relationsSheet); err != nil {
		return fmt.Errorf("creating relations sheet: %w", err)
	}
	if err := writeRow(relationsSheet, 1, []interface{}{"Source", "Type", "Target", "Confidence", "Reverse", "Context"}); err != nil {
		return fmt.Errorf("writing relations header: %w", err)
	}
	for i, r := range o.Relations {
		if err := writeRow(relationsSheet, i+2, []interface{}{
			r.Source, string(r.Type), r.Target, r.Confidence, r.IsReverse, r.Context,
		}); err != nil {
			return fmt.Errorf("writing relation row: %w", err)
		}
	}

	const statsSheet = "Statistics"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("creating statistics sheet: %w", err)
	}
	stats := o.Stats()
	row := 1
	put := func(label string, value interface{}) error {
		err := writeRow(statsSheet, row, []interface{}{label, value})
		row++
		return err
	}
	if err := put("Total entities", stats.TotalEntities); err != nil {
		return fmt.Errorf("writing statistics: %w", err)
	}
	if err := put("Total relations", stats.TotalRelations); err != nil {
		return fmt.Errorf("writing statistics: %w", err)
	}
	for _, kind := range sortedKindKeys(stats) {
		if err := put("Entities: "+string(kind), stats.EntityKinds[kind]); err != nil {
			return fmt.Errorf("writing statistics: %w", err)
		}
	}
	for _, t := range sortedTypeKeys(stats) {
		if err := put("Relations: "+string(t), stats.RelationTypes[t]); err != nil {
			return fmt.Errorf("writing statistics: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
