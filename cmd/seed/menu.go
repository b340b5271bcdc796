package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// menuRow is one spreadsheet line: Category | Title | Price | Featured
type menuRow struct {
	Line     int
	Category string
	Title    string
	Price    decimal.Decimal
	Featured bool
}

// rowError reports a line the importer could not use
type rowError struct {
	Line   int
	Reason string
}

func (e rowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// readMenuFromXLSX parses the first sheet. The header row is skipped, blank
// rows are ignored and malformed rows are returned as rowErrors.
func readMenuFromXLSX(filePath string) ([]menuRow, []rowError, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	var (
		items   []menuRow
		skipped []rowError
	)
	seen := make(map[string]bool)
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}
		item, err := parseMenuRow(line, row)
		if err != nil {
			skipped = append(skipped, rowError{Line: line, Reason: err.Error()})
			continue
		}

		key := util.Slugify(item.Category) + "|" + strings.ToLower(item.Title)
		if seen[key] {
			skipped = append(skipped, rowError{Line: line, Reason: "duplicate of an earlier row"})
			continue
		}
		seen[key] = true
		items = append(items, item)
	}
	return items, skipped, nil
}

func parseMenuRow(line int, row []string) (menuRow, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	item := menuRow{Line: line, Category: cell(0), Title: cell(1)}
	if item.Category == "" {
		return item, fmt.Errorf("category is empty")
	}
	if item.Title == "" {
		return item, fmt.Errorf("title is empty")
	}

	price, err := decimal.NewFromString(cell(2))
	if err != nil {
		return item, fmt.Errorf("invalid price %q", cell(2))
	}
	if !model.ValidPrice(price) {
		return item, fmt.Errorf("price %s out of range", price.String())
	}
	item.Price = price

	if raw := cell(3); raw != "" {
		featured, err := parseFeatured(raw)
		if err != nil {
			return item, err
		}
		item.Featured = featured
	}
	return item, nil
}

func parseFeatured(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid featured flag %q", raw)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
