package inputs

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadSchema parses the schema description file into the ordered list of
// output column names. The first line is a human-readable title and is
// skipped; every following non-empty line contributes its first
// comma-separated value. Order is kept exactly, duplicates are not removed.
func ReadSchema(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
		return nil, fmt.Errorf("skip schema title in %s: %w", path, err)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	var fields []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", path, err)
		}
		if len(rec) == 0 {
			continue
		}
		fields = append(fields, rec[0])
	}
	return fields, nil
}
