// Package snapshot exports the customers table to Parquet in object storage
// and brings it back as a local file DuckDB can read.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/datawhisper/datawhisper/internal/storage"
)

const TableName = "customers"

// Customer mirrors one row of the customers table. Nullable columns are
// pointers so they stay optional in the Parquet schema.
type Customer struct {
	CustomerID int64   `parquet:"customer_id"`
	Name       string  `parquet:"name"`
	Gender     *string `parquet:"gender"`
	Location   *string `parquet:"location"`
}

type ExportResult struct {
	Rows       int
	Bytes      int64
	ArchiveKey string
	LatestKey  string
}

const selectCustomers = `SELECT customer_id, name, gender, location FROM customers ORDER BY customer_id`

// Export writes every customer to an archived key and to the latest key
// readers load from.
func Export(ctx context.Context, db *sql.DB, store storage.ObjectStore, now time.Time) (ExportResult, error) {
	if db == nil {
		return ExportResult{}, fmt.Errorf("database is required")
	}
	if store == nil {
		return ExportResult{}, fmt.Errorf("object store is required")
	}

	customers, err := loadCustomers(ctx, db)
	if err != nil {
		return ExportResult{}, err
	}
	payload, err := Encode(customers)
	if err != nil {
		return ExportResult{}, err
	}

	archiveKey, err := storage.BuildSnapshotPath(TableName, now)
	if err != nil {
		return ExportResult{}, err
	}
	latestKey, err := storage.LatestSnapshotPath(TableName)
	if err != nil {
		return ExportResult{}, err
	}
	for _, key := range []string{archiveKey, latestKey} {
		if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{}); err != nil {
			return ExportResult{}, fmt.Errorf("upload snapshot %q: %w", key, err)
		}
	}

	return ExportResult{
		Rows:       len(customers),
		Bytes:      int64(len(payload)),
		ArchiveKey: archiveKey,
		LatestKey:  latestKey,
	}, nil
}

func loadCustomers(ctx context.Context, db *sql.DB) ([]Customer, error) {
	rows, err := db.QueryContext(ctx, selectCustomers)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	customers := make([]Customer, 0)
	for rows.Next() {
		var (
			item     Customer
			gender   sql.NullString
			location sql.NullString
		)
		if err := rows.Scan(&item.CustomerID, &item.Name, &gender, &location); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		if gender.Valid {
			item.Gender = &gender.String
		}
		if location.Valid {
			item.Location = &location.String
		}
		customers = append(customers, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func Encode(customers []Customer) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Customer](buf)
	if _, err := writer.Write(customers); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Local is a snapshot copied to disk.
type Local struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Fetch downloads the latest snapshot into dir.
func Fetch(ctx context.Context, store storage.ObjectStore, dir string) (Local, error) {
	key, err := storage.LatestSnapshotPath(TableName)
	if err != nil {
		return Local{}, err
	}
	info, err := store.Stat(ctx, key)
	if err != nil {
		return Local{}, fmt.Errorf("stat snapshot %q: %w", key, err)
	}
	reader, err := store.Get(ctx, key)
	if err != nil {
		return Local{}, fmt.Errorf("get snapshot %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	localPath := filepath.Join(dir, TableName+".parquet")
	written, err := writeFile(localPath, reader)
	if err != nil {
		return Local{}, fmt.Errorf("write local snapshot %q: %w", localPath, err)
	}
	if info.Size > 0 && written != info.Size {
		return Local{}, fmt.Errorf("snapshot %q truncated: got %d of %d bytes", key, written, info.Size)
	}
	return Local{Path: localPath, Size: written, LastModified: info.LastModified}, nil
}

func writeFile(path string, reader io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		_ = file.Close()
		return 0, err
	}
	return written, file.Close()
}
