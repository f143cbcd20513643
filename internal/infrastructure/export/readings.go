// Package export renders meter reading histories as .xlsx workbooks.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/catalogs/building"
	"mietwerk/internal/domain/catalogs/meter"
	"mietwerk/internal/domain/readings"
	"mietwerk/internal/observability/metrics"
	"mietwerk/pkg/logger"
)

// BuildingReader loads the building a report is scoped to.
type BuildingReader interface {
	GetByID(ctx context.Context, buildingID id.ID) (*building.Building, error)
}

// MeterReader lists the meters of a building and resolves their types.
type MeterReader interface {
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*meter.Meter, error)
}

// TypeReader resolves meter types for unit labels.
type TypeReader interface {
	GetByID(ctx context.Context, typeID id.ID) (*meter.MeterType, error)
}

// ReadingReader lists the reading history of one meter.
type ReadingReader interface {
	ListByMeter(ctx context.Context, meterID id.ID) ([]*readings.MeterReading, error)
}

// Filter restricts which readings end up in the workbook.
type Filter struct {
	From *time.Time
	To   *time.Time
}

// ReadingsExporter writes all readings of a building into a workbook
// with a summary sheet and one row per reading.
type ReadingsExporter struct {
	buildings BuildingReader
	meters    MeterReader
	types     TypeReader
	readings  ReadingReader
}

func NewReadingsExporter(
	buildings BuildingReader,
	meters MeterReader,
	types TypeReader,
	rr ReadingReader,
) *ReadingsExporter {
	return &ReadingsExporter{
		buildings: buildings,
		meters:    meters,
		types:     types,
		readings:  rr,
	}
}

// ExportToFile renders the workbook and writes it to path.
func (e *ReadingsExporter) ExportToFile(ctx context.Context, buildingID id.ID, filter Filter, path string) error {
	data, err := e.Export(ctx, buildingID, filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.Info(ctx, "readings exported", "building_id", buildingID, "path", path)
	return nil
}

// Export renders the workbook bytes.
func (e *ReadingsExporter) Export(ctx context.Context, buildingID id.ID, filter Filter) ([]byte, error) {
	start := time.Now()

	data, err := e.build(ctx, buildingID, filter)
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		return nil, err
	}
	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))
	return data, nil
}

func (e *ReadingsExporter) build(ctx context.Context, buildingID id.ID, filter Filter) ([]byte, error) {
	bld, err := e.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	meters, err := e.meters.ListByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	summarySheet := "summary"
	readingsSheet := "readings"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	_ = f.SetCellValue(summarySheet, "A1", "Meter readings report")
	_ = f.SetCellValue(summarySheet, "A3", "Building")
	_ = f.SetCellValue(summarySheet, "B3", bld.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Address")
	_ = f.SetCellValue(summarySheet, "B4", fmt.Sprintf("%s, %s %s", bld.Street, bld.PostalCode, bld.City))
	_ = f.SetCellValue(summarySheet, "A5", "Meters")
	_ = f.SetCellValue(summarySheet, "B5", len(meters))
	_ = f.SetCellValue(summarySheet, "A6", "Generated")
	_ = f.SetCellValue(summarySheet, "B6", time.Now().UTC().Format(time.RFC3339))
	if filter.From != nil {
		_ = f.SetCellValue(summarySheet, "A7", "From")
		_ = f.SetCellValue(summarySheet, "B7", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		_ = f.SetCellValue(summarySheet, "A8", "To")
		_ = f.SetCellValue(summarySheet, "B8", filter.To.Format("2006-01-02"))
	}

	headers := []string{"Meter", "Type", "Unit", "Date", "Value", "Reading type", "Archived", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(readingsSheet, cell, h)
	}

	typeCache := make(map[id.ID]*meter.MeterType)
	row := 2
	for _, m := range meters {
		mt, ok := typeCache[m.MeterTypeID]
		if !ok {
			mt, err = e.types.GetByID(ctx, m.MeterTypeID)
			if err != nil {
				if apperror.IsNotFound(err) {
					logger.Warn(ctx, "meter type missing, skipping meter in export",
						"meter_id", m.ID, "meter_type_id", m.MeterTypeID)
					continue
				}
				return nil, err
			}
			typeCache[m.MeterTypeID] = mt
		}

		history, err := e.readings.ListByMeter(ctx, m.ID)
		if err != nil {
			return nil, err
		}

		for _, r := range history {
			if !filter.includes(r.ReadingDate) {
				continue
			}
			notes := ""
			if r.Notes != nil {
				notes = *r.Notes
			}
			values := []any{
				m.Number,
				mt.Name,
				mt.Unit,
				r.ReadingDate.Format("2006-01-02"),
				r.Value.InexactFloat64(),
				string(r.Type),
				r.IsArchived,
				notes,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(readingsSheet, cell, v)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (f Filter) includes(date time.Time) bool {
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}
