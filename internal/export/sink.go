package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/procstop/internal/history"
	"github.com/xuri/excelize/v2"
)

// Artifact describes one written table. Path is empty when NoData is set.
type Artifact struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Rows   int    `json:"rows"`
	NoData bool   `json:"no_data,omitempty"`
}

// Sink persists a named table.
type Sink interface {
	Write(ctx context.Context, name string, t Table) (Artifact, error)
}

// CSVSink writes one CSV file per table into Dir.
type CSVSink struct {
	Dir string
}

func (s *CSVSink) Write(ctx context.Context, name string, t Table) (Artifact, error) {
	if t.Empty() {
		return Artifact{Name: name, NoData: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(s.Dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return Artifact{}, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return Artifact{}, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Artifact{}, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("close %s: %w", path, err)
	}
	return Artifact{Name: name, Path: path, Rows: len(t.Rows)}, nil
}

// XLSXSink writes one workbook per table into Dir, with the sheet named
// after the table.
type XLSXSink struct {
	Dir string
}

func (s *XLSXSink) Write(ctx context.Context, name string, t Table) (Artifact, error) {
	if t.Empty() {
		return Artifact{Name: name, NoData: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if err := f.SetSheetName(sheet, name); err != nil {
		return Artifact{}, fmt.Errorf("name sheet: %w", err)
	}
	sheet = name

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return Artifact{}, fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Artifact{}, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			if _, ok := v.(float64); ok {
				values[j] = v
				continue
			}
			values[j] = formatCell(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return Artifact{}, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	path := filepath.Join(s.Dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return Artifact{}, fmt.Errorf("save %s: %w", path, err)
	}
	return Artifact{Name: name, Path: path, Rows: len(t.Rows)}, nil
}

// WriteAll exports every table of t through sink, in a fixed order.
func WriteAll(ctx context.Context, sink Sink, t *history.Tables, logger *slog.Logger) ([]Artifact, error) {
	tables := []struct {
		name  string
		table Table
	}{
		{EmotionName, EmotionTable(t.Emotions)},
		{SentimentName, SentimentTable(t.Sentiments)},
		{HateName, HateTable(t.Hate)},
		{IronyName, IronyTable(t.Irony)},
		{EntityName, EntityTable(t.Entities)},
	}

	out := make([]Artifact, 0, len(tables))
	for _, tt := range tables {
		a, err := sink.Write(ctx, tt.name, tt.table)
		if err != nil {
			return out, fmt.Errorf("export %s: %w", tt.name, err)
		}
		if a.NoData {
			logger.Info("no data to export", "table", tt.name)
		} else {
			logger.Info("table exported", "table", tt.name, "path", a.Path, "rows", a.Rows)
		}
		out = append(out, a)
	}
	return out, nil
}
