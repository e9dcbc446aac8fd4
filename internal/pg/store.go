package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"jobsapi/internal/crud"
)

// Store is a crud.Store over one Postgres table.
type Store struct {
	db    *sqlx.DB
	table Table
	now   func() time.Time
}

var _ crud.Store = (*Store)(nil)

func NewStore(db *sqlx.DB, table Table) *Store {
	return &Store{db: db, table: table, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Name() string { return s.table.Model }

// where строит условие по фильтру; isdeleted = null считается «живой» записью
func where(f crud.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.ID != 0 {
		conds = append(conds, `"id" = ?`)
		args = append(args, f.ID)
	}
	if f.Deleted {
		conds = append(conds, `"isdeleted" = true`)
	} else {
		conds = append(conds, `"isdeleted" is not true`)
	}
	return strings.Join(conds, " and "), args
}

func (s *Store) FindOne(ctx context.Context, f crud.Filter) (crud.Entity, error) {
	cond, args := where(f)
	q := s.db.Rebind(fmt.Sprintf(`select * from %s where %s order by "id" limit 1`, s.table.FQN(), cond))
	list, err := s.query(ctx, q, args...)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (s *Store) FindMany(ctx context.Context, f crud.Filter) ([]crud.Entity, error) {
	cond, args := where(f)
	q := s.db.Rebind(fmt.Sprintf(`select * from %s where %s order by "id"`, s.table.FQN(), cond))
	return s.query(ctx, q, args...)
}

func (s *Store) Exists(ctx context.Context, f crud.Filter) (bool, error) {
	cond, args := where(f)
	q := s.db.Rebind(fmt.Sprintf(`select exists(select 1 from %s where %s)`, s.table.FQN(), cond))
	var ok bool
	if err := s.db.GetContext(ctx, &ok, q, args...); err != nil {
		return false, fmt.Errorf("%s exists: %w", s.table.Name, err)
	}
	return ok, nil
}

func (s *Store) Create(ctx context.Context, values map[string]any) (crud.Entity, error) {
	now := s.now()
	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		row[k] = v
	}
	row["createddate"] = now
	row["lastmodifieddate"] = now

	cols, args := s.columns(row, false)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := s.db.Rebind(fmt.Sprintf(`insert into %s (%s) values (%s) returning *`,
		s.table.FQN(), strings.Join(cols, ", "), marks))

	list, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s insert: no row returned", s.table.Name)
	}
	return list[0], nil
}

func (s *Store) Save(ctx context.Context, e crud.Entity, changes map[string]any) (crud.Entity, error) {
	row := make(map[string]any, len(changes)+1)
	for k, v := range changes {
		row[k] = v
	}
	row["lastmodifieddate"] = s.now()

	cols, args := s.columns(row, true)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	args = append(args, e.ID())
	q := s.db.Rebind(fmt.Sprintf(`update %s set %s where "id" = ? returning *`,
		s.table.FQN(), strings.Join(sets, ", ")))

	list, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s update: row %d does not exist", s.table.Name, e.ID())
	}
	return list[0], nil
}

// columns выбирает из row известные таблице колонки в порядке их объявления.
func (s *Store) columns(row map[string]any, skipID bool) ([]string, []any) {
	var cols []string
	var args []any
	if v, ok := row["id"]; ok && !skipID {
		cols = append(cols, sqlIdent("id"))
		args = append(args, v)
	}
	for _, c := range s.table.Columns {
		if v, ok := row[c.Name]; ok {
			cols = append(cols, sqlIdent(c.Name))
			args = append(args, v)
		}
	}
	return cols, args
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]crud.Entity, error) {
	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", s.table.Name, err)
	}
	defer rows.Close()

	out := make([]crud.Entity, 0)
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("%s scan: %w", s.table.Name, err)
		}
		for k, v := range m {
			// numeric/varchar могут прийти байтами
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, crud.Entity(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", s.table.Name, err)
	}
	return out, nil
}

// Models is the Postgres-backed model set.
type Models struct {
	db     *sqlx.DB
	stores map[string]*Store
}

func NewModels(db *sqlx.DB, tables ...Table) *Models {
	m := &Models{db: db, stores: make(map[string]*Store, len(tables))}
	for _, t := range tables {
		m.stores[t.Model] = NewStore(db, t)
	}
	return m
}

func (m *Models) Model(name string) (crud.Store, error) {
	s, ok := m.stores[name]
	if !ok {
		return nil, fmt.Errorf("pg: unknown model %q", name)
	}
	return s, nil
}
