// Package inputs loads the CSV inputs a scrape run is driven by: the
// location table, the category table, and the output schema description.
package inputs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"blinkitparser/internal/domain/models"
)

// ReadLocations parses the locations table. The header must contain
// latitude and longitude columns; order of columns is free.
func ReadLocations(path string) ([]models.Location, error) {
	rows, err := readTable(path, "latitude", "longitude")
	if err != nil {
		return nil, err
	}

	out := make([]models.Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Location{
			Latitude:  r["latitude"],
			Longitude: r["longitude"],
		})
	}
	return out, nil
}

// ReadCategories parses the two-level category table.
func ReadCategories(path string) ([]models.Category, error) {
	rows, err := readTable(path, "l1_category", "l1_category_id", "l2_category", "l2_category_id")
	if err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Category{
			L1Category:   r["l1_category"],
			L1CategoryID: r["l1_category_id"],
			L2Category:   r["l2_category"],
			L2CategoryID: r["l2_category_id"],
		})
	}
	return out, nil
}

// readTable reads a named-column CSV into one map per data row. Required
// columns must be present in the header; rows shorter than the header leave
// the tail columns empty.
func readTable(path string, required ...string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input table %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	// Excel exports like to prepend a BOM.
	header[0] = strings.TrimPrefix(header[0], "﻿")

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("input table %s: missing column %q", path, col)
		}
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		row := make(map[string]string, len(idx))
		for name, i := range idx {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
