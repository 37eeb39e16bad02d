package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"tablebook/internal/domain"
	"tablebook/internal/models"
)

const sheetName = "Schedule"

// ScheduleExporter writes the day's floor plan to an Excel sheet:
// one row per table, one column per slot, each occupied cell carrying
// the customer and party size.
type ScheduleExporter struct {
	store  domain.Store
	path   string
	logger *zerolog.Logger
}

func NewScheduleExporter(store domain.Store, path string, logger *zerolog.Logger) *ScheduleExporter {
	return &ScheduleExporter{store: store, path: path, logger: logger}
}

// ExportSchedule renders the schedule for one date and returns the
// written file path. An existing file for the date is overwritten, so
// re-exports after every booking change are cheap to reason about.
func (e *ScheduleExporter) ExportSchedule(ctx context.Context, date string) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tables, err := e.store.GetTables(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tables: %w", err)
	}
	bookings, err := e.store.GetBookingsByDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("failed to load bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Reservations for %s", date))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	slots := models.AllSlots()
	slotCols := writeSlotHeaders(f, slots)
	tableRows := writeTableHeaders(f, tables)
	writeBookingCells(f, bookings, slotCols, tableRows)

	lastCol, _ := excelize.ColumnNumberToName(len(slots) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "B", lastCol, 16)

	_ = f.DeleteSheet("Sheet1")

	filePath := filepath.Join(e.path, fmt.Sprintf("schedule_%s.xlsx", date))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("failed to save schedule export: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Str("date", date).Msg("schedule exported")
	return filePath, nil
}

func writeSlotHeaders(f *excelize.File, slots []string) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	cols := make(map[string]int, len(slots))
	for i, slot := range slots {
		col := i + 2
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, slot)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		cols[slot] = col
	}
	return cols
}

func writeTableHeaders(f *excelize.File, tables []*models.Table) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	rows := make(map[string]int, len(tables))
	for i, table := range tables {
		row := i + 3
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("Table %d (%d)", table.TableNumber, table.Seats))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		rows[table.ID] = row
	}
	return rows
}

func writeBookingCells(f *excelize.File, bookings []*models.Booking, slotCols, tableRows map[string]int) {
	bookedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	for _, b := range bookings {
		col, okCol := slotCols[b.BookingTime]
		row, okRow := tableRows[b.TableID]
		if !okCol || !okRow {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s\nparty of %d", b.CustomerName, b.PartySize))
		_ = f.SetCellStyle(sheetName, cell, cell, bookedStyle)
	}
}
