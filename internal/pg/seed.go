package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// LoadSeed reads a JSON array of rows.
func LoadSeed(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Seed drops and recreates table, then inserts rows. Rows without isdeleted
// are stored as not deleted.
func Seed(ctx context.Context, db *sqlx.DB, log logrus.FieldLogger, table Table, rows []map[string]any) (int, error) {
	if _, err := db.ExecContext(ctx, DropDDL(table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table.Name, err)
	}
	if err := Migrate(ctx, db, log, table); err != nil {
		return 0, err
	}

	store := NewStore(db, table)
	for i, r := range rows {
		if _, ok := r["isdeleted"]; !ok {
			r["isdeleted"] = false
		}
		// id генерирует serial
		delete(r, "id")
		if _, err := store.Create(ctx, r); err != nil {
			return i, fmt.Errorf("seed row %d: %w", i, err)
		}
	}
	log.WithFields(logrus.Fields{"table": table.Name, "rows": len(rows)}).Info("seeded")
	return len(rows), nil
}
