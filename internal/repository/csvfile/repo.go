package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"blinkitparser/internal/domain/models"
)

// Repo streams product rows into one CSV file. The header goes out at open
// time and every row is flushed as it lands, so a run killed mid-pair keeps
// everything scraped up to that point.
type Repo struct {
	path   string
	schema []string
	log    *slog.Logger

	f    *os.File
	w    *csv.Writer
	rows int
}

func New(path string, schema []string, log *slog.Logger) (*Repo, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return nil, fmt.Errorf("csvfile repo: empty path")
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("csvfile repo: empty schema")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(schema); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}

	return &Repo{path: path, schema: schema, log: log, f: f, w: w}, nil
}

func (r *Repo) WriteRow(ctx context.Context, p models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := p.Fields()
	rec := make([]string, len(r.schema))
	for i, col := range r.schema {
		rec[i] = fields[col] // columns the product has no value for stay empty
	}

	if err := r.w.Write(rec); err != nil {
		return err
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return err
	}

	r.rows++
	return nil
}

func (r *Repo) Close() error {
	r.w.Flush()
	werr := r.w.Error()
	cerr := r.f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}

	r.log.Info("csv saved", "path", r.path, "rows", r.rows)
	return nil
}
