package bulk_operation

import (
	"fmt"
	"time"

	"go-freight/internal/common/models"
	"go-freight/internal/features/listing"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const manifestSheet = "Manifest"

// RenderManifest prints records as an xlsx sheet with the schema's print
// columns, one row per record in resolution order.
func RenderManifest(schema listing.ResourceSchema, records []models.Record, printedAt time.Time) (*Manifest, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(manifestSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	columns := append([]listing.Column{{Header: "#"}}, schema.PrintColumns...)
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(manifestSheet, cell, col.Header); err != nil {
			return nil, err
		}
		_ = f.SetCellStyle(manifestSheet, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2
		serial, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(manifestSheet, serial, rowIdx+1); err != nil {
			return nil, err
		}
		for colIdx, col := range schema.PrintColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, row)
			if err := f.SetCellValue(manifestSheet, cell, cellValue(rec[col.Field])); err != nil {
				return nil, err
			}
		}
	}

	for i := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := 16.0
		if i == 0 {
			width = 6
		}
		_ = f.SetColWidth(manifestSheet, name, name, width)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return &Manifest{
		FileName: fmt.Sprintf("%s-%s.xlsx", schema.Name, printedAt.Format("20060102-150405")),
		Content:  buffer.Bytes(),
	}, nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(models.DateLayout)
	case primitive.DateTime:
		return t.Time().UTC().Format(models.DateLayout)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.M:
		return cellValue(map[string]any(t))
	case map[string]any:
		if name, ok := t["name"]; ok {
			return fmt.Sprintf("%v", name)
		}
		return fmt.Sprintf("%v", t)
	default:
		return t
	}
}
