package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mentor/internal/models"
)

// EntitySheetName is the worksheet written by ExportEntities.
const EntitySheetName = "Entities"

var entityExportHeader = []interface{}{
	"ID", "Type", "Title", "Status", "Priority", "Context Tags",
	"Scheduled At", "Due At", "Completed At", "Created At",
}

// ExportEntities renders entities as an .xlsx workbook with one row per entity.
func ExportEntities(entities []models.Entity) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), EntitySheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(EntitySheetName, "A1", &entityExportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entities {
		row := []interface{}{
			e.ID,
			string(e.EntityType),
			e.Title,
			string(e.Status),
			e.Priority,
			strings.Join(e.ContextTags, ", "),
			formatCellTime(e.ScheduledAt),
			formatCellTime(e.DueAt),
			formatCellTime(e.CompletedAt),
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(EntitySheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(EntitySheetName, "C", "C", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf, nil
}

func formatCellTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
