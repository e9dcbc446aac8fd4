package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ApplyDDL выполняет map[key]sql в порядке ключей. Ожидается idempotent DDL
// (create ... if not exists).
func ApplyDDL(ctx context.Context, db sqlx.ExecerContext, log logrus.FieldLogger, ddl map[string]string) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			// duplicate_object (42710) / duplicate_table (42P07)
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == "42710" || pgErr.Code == "42P07") {
				log.WithFields(logrus.Fields{"step": k, "code": pgErr.Code}).
					Infof("DDL skipped (already exists): %s", strings.TrimSpace(pgErr.Message))
				continue
			}
			return fmt.Errorf("DDL apply failed (%s): %w", k, err)
		}
		log.WithField("step", k).Debug("DDL applied")
	}
	return nil
}

// Migrate creates schemas, tables and indexes for tables.
func Migrate(ctx context.Context, db sqlx.ExecerContext, log logrus.FieldLogger, tables ...Table) error {
	ddl, err := GenerateDDL(tables...)
	if err != nil {
		return err
	}
	return ApplyDDL(ctx, db, log, ddl)
}
