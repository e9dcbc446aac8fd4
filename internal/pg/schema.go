package pg

import (
	"fmt"
	"strings"
)

// Column is one table column. Type is the Postgres type as written in DDL.
type Column struct {
	Name string
	Type string
}

// Table describes a model table: schema-qualified name plus columns. The id
// column (serial primary key) is implicit.
type Table struct {
	Model   string // model name used in messages ("Job")
	Schema  string
	Name    string
	Columns []Column
	Indexes [][]string
}

// Has reports whether name is a column of t, id included.
func (t Table) Has(name string) bool {
	if name == "id" {
		return true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// FQN returns the quoted schema-qualified table name.
func (t Table) FQN() string {
	return sqlIdent(t.Schema) + "." + sqlIdent(t.Name)
}

// JobTable is the svc_job__c table in schema.
func JobTable(schema string) Table {
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}
	return Table{
		Model:  "Job",
		Schema: schema,
		Name:   "svc_job__c",
		Columns: []Column{
			{"job_end_time__c", "timestamp with time zone"},
			{"createddate", "timestamp with time zone"},
			{"longitude__c", "double precision"},
			{"contact_name__c", "varchar(1300)"},
			{"client_contact__c", "varchar(18)"},
			{"client_name__c", "varchar(1300)"},
			{"job_name__c", "varchar(100)"},
			{"sfid", "varchar(18)"},
			{"isdeleted", "boolean"},
			{"client_account__c", "varchar(18)"},
			{"job_address__c", "varchar(200)"},
			{"info_text__c", "varchar(255)"},
			{"name", "varchar(80)"},
			{"lastmodifieddate", "timestamp with time zone"},
			{"status__c", "varchar(255)"},
			{"phone__c", "varchar(40)"},
			{"notes__c", "text"},
			{"latitude__c", "double precision"},
			{"picture_s3_url__c", "varchar(255)"},
			{"job_start_time__c", "timestamp with time zone"},
		},
		Indexes: [][]string{{"isdeleted"}, {"sfid"}},
	}
}

// идентификаторы всегда в кавычках и в нижнем регистре
func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// GenerateDDL возвращает карту key -> SQL. Ключи сортируются так, что схемы и
// таблицы создаются раньше индексов.
func GenerateDDL(tables ...Table) (map[string]string, error) {
	out := make(map[string]string, 2)

	var phaseA, phaseB strings.Builder
	seenSchemas := map[string]struct{}{}

	for _, t := range tables {
		if t.Name == "" {
			return nil, fmt.Errorf("table for model %q has no name", t.Model)
		}
		mod := strings.ToLower(t.Schema)
		if _, ok := seenSchemas[mod]; !ok {
			fmt.Fprintf(&phaseA, "create schema if not exists %s;\n", sqlIdent(mod))
			seenSchemas[mod] = struct{}{}
		}

		cols := []string{`"id" serial primary key`}
		seen := map[string]struct{}{"id": {}}
		for _, c := range t.Columns {
			name := strings.ToLower(c.Name)
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%s: column %q declared twice", t.Name, c.Name)
			}
			seen[name] = struct{}{}
			cols = append(cols, fmt.Sprintf("%s %s null", sqlIdent(c.Name), c.Type))
		}
		fmt.Fprintf(&phaseA, "create table if not exists %s (\n  %s\n);\n",
			t.FQN(), strings.Join(cols, ",\n  "))

		for _, set := range t.Indexes {
			if len(set) == 0 {
				continue
			}
			parts := make([]string, 0, len(set))
			for _, p := range set {
				if !t.Has(p) {
					return nil, fmt.Errorf("%s: index on unknown column %q", t.Name, p)
				}
				parts = append(parts, sqlIdent(p))
			}
			idx := strings.ToLower(t.Name + "_" + strings.Join(set, "_") + "_idx")
			fmt.Fprintf(&phaseB, "create index if not exists %s on %s(%s);\n",
				sqlIdent(idx), t.FQN(), strings.Join(parts, ", "))
		}
	}

	out["000_schemas_and_tables"] = phaseA.String()
	if phaseB.Len() > 0 {
		out["100_indexes"] = phaseB.String()
	}
	return out, nil
}

// DropDDL drops the tables, used before reseeding.
func DropDDL(tables ...Table) string {
	var sb strings.Builder
	for _, t := range tables {
		fmt.Fprintf(&sb, "drop table if exists %s;\n", t.FQN())
	}
	return sb.String()
}
