// Package excelstore adapts a worksheet in an .xlsx workbook to
// syncengine.TableStore using github.com/xuri/excelize/v2. Row 1 is the
// header; every other row is data. This is the spreadsheet-side peer.
package excelstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
)

// Store is the spreadsheet-side peer backed by a single worksheet.
// Insert, Update and Delete save the workbook to disk before returning;
// ReadAll and Schema read the workbook held in memory and write nothing.
type Store struct {
	path      string
	sheetName string
	pkColumn  string
	file      *excelize.File
}

// Open loads path and selects sheetName (the first sheet if empty),
// creating a header-only sheet if the file doesn't exist yet.
func Open(path, sheetName, pkColumn string, defaultColumns []string) (*Store, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		file = excelize.NewFile()
		if sheetName == "" {
			sheetName = "Sheet1"
		}
		if err := writeHeader(file, sheetName, defaultColumns); err != nil {
			return nil, fmt.Errorf("initialize new workbook: %w", err)
		}
		if err := file.SaveAs(path); err != nil {
			return nil, fmt.Errorf("save new workbook: %w", err)
		}
		return &Store{path: path, sheetName: sheetName, pkColumn: pkColumn, file: file}, nil
	}

	if sheetName == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets found in %s", path)
		}
		sheetName = sheets[0]
	}
	return &Store{path: path, sheetName: sheetName, pkColumn: pkColumn, file: file}, nil
}

// Close releases the workbook's open file handle.
func (s *Store) Close() error { return s.file.Close() }

func writeHeader(file *excelize.File, sheetName string, columns []string) error {
	idx, err := file.NewSheet(sheetName)
	if err != nil {
		return err
	}
	file.SetActiveSheet(idx)
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ReadAll(ctx context.Context) (syncengine.Snapshot, error) {
	rows, err := s.file.GetRows(s.sheetName)
	if err != nil {
		return syncengine.Snapshot{}, fmt.Errorf("read rows from %s: %w", s.sheetName, err)
	}
	if len(rows) == 0 {
		return syncengine.Snapshot{}, nil
	}

	headers := rows[0]
	out := make([]syncengine.Row, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		cells := make(map[string]syncengine.Cell, len(headers))
		for i, header := range headers {
			if i >= len(raw) {
				cells[header] = syncengine.NullCell
				continue
			}
			cells[header] = cellFromString(raw[i])
		}
		out = append(out, syncengine.NewRow(headers, cells))
	}
	return syncengine.Snapshot{Columns: headers, Rows: out}, nil
}

// cellFromString keeps every value as its canonical text form — the
// spreadsheet side is loosely typed by nature, and string-cast comparison
// is exactly what the sync engine's detector relies on.
func cellFromString(v string) syncengine.Cell {
	if v == "" {
		return syncengine.NullCell
	}
	return syncengine.TextCell(v)
}

func (s *Store) headers() ([]string, error) {
	rows, err := s.file.GetRows(s.sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", s.sheetName)
	}
	return rows[0], nil
}

func (s *Store) findRowByPK(pk string) (int, []string, error) {
	rows, err := s.file.GetRows(s.sheetName)
	if err != nil {
		return 0, nil, err
	}
	if len(rows) == 0 {
		return 0, nil, fmt.Errorf("sheet %s has no header row", s.sheetName)
	}
	headers := rows[0]
	pkIdx := -1
	for i, h := range headers {
		if h == s.pkColumn {
			pkIdx = i
			break
		}
	}
	if pkIdx == -1 {
		return 0, nil, syncengine.NewSchemaError(syncengine.OriginSheet, s.pkColumn)
	}
	for i, row := range rows[1:] {
		if pkIdx < len(row) && row[pkIdx] == pk {
			return i + 2, headers, nil // +2: 1-indexed, row 1 is the header
		}
	}
	return 0, headers, nil
}

func (s *Store) Insert(ctx context.Context, row syncengine.Row) error {
	headers, err := s.headers()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", s.sheetName, err)
	}

	rows, err := s.file.GetRows(s.sheetName)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", s.sheetName, err)
	}
	targetRow := len(rows) + 1

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, targetRow)
		if err != nil {
			return err
		}
		if err := s.file.SetCellValue(s.sheetName, cell, row.Get(header).String()); err != nil {
			return err
		}
	}
	return s.file.SaveAs(s.path)
}

func (s *Store) Update(ctx context.Context, pk string, delta syncengine.Row) error {
	if len(delta.Columns) == 0 {
		return nil
	}
	rowNum, headers, err := s.findRowByPK(pk)
	if err != nil {
		return fmt.Errorf("update %s pk=%s: %w", s.sheetName, pk, err)
	}
	if rowNum == 0 {
		// Row absent on this peer — silent no-op, per TableStore's
		// documented spreadsheet-side contract.
		return nil
	}

	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		colIndex[h] = i
	}

	for _, col := range delta.Columns {
		idx, ok := colIndex[col]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(idx+1, rowNum)
		if err != nil {
			return err
		}
		if err := s.file.SetCellValue(s.sheetName, cell, delta.Get(col).String()); err != nil {
			return err
		}
	}
	return s.file.SaveAs(s.path)
}

func (s *Store) Delete(ctx context.Context, pk string) error {
	rowNum, _, err := s.findRowByPK(pk)
	if err != nil {
		return fmt.Errorf("delete %s pk=%s: %w", s.sheetName, pk, err)
	}
	if rowNum == 0 {
		return nil
	}
	if err := s.file.RemoveRow(s.sheetName, rowNum); err != nil {
		return fmt.Errorf("delete %s pk=%s: %w", s.sheetName, pk, err)
	}
	return s.file.SaveAs(s.path)
}

func (s *Store) Schema(ctx context.Context) (map[string]string, error) {
	headers, err := s.headers()
	if err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(s.sheetName)
	if err != nil {
		return nil, err
	}

	schema := make(map[string]string, len(headers))
	for i, header := range headers {
		schema[header] = "string"
		for _, row := range rows[1:] {
			if i >= len(row) || row[i] == "" {
				continue
			}
			schema[header] = detectType(row[i])
			break
		}
	}
	return schema, nil
}

func detectType(value string) string {
	if value == "true" || value == "false" {
		return "bool"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "int64"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "float64"
	}
	return "string"
}

var _ syncengine.TableStore = (*Store)(nil)
