package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
)

// Column is a column that may be missing from databases created by an
// older schema. Definition must be valid after ADD COLUMN, so NOT NULL
// columns need a default.
type Column struct {
	Table      string
	Name       string
	Definition string
}

var additiveColumns = []Column{
	{Table: "estimates", Name: "markup_rate", Definition: "REAL NOT NULL DEFAULT 0"},
	{Table: "estimate_items", Name: "markup_excluded", Definition: "INTEGER NOT NULL DEFAULT 0"},
}

// ensureColumns adds every column in want that its table lacks and returns
// the ones it added. Identifiers come from the fixed list above.
func ensureColumns(ctx context.Context, db dbx.DBTX, want []Column) ([]Column, error) {
	existing := map[string]map[string]bool{}
	var added []Column

	for _, c := range want {
		cols, ok := existing[c.Table]
		if !ok {
			var err error
			cols, err = tableColumns(ctx, db, c.Table)
			if err != nil {
				return added, err
			}
			existing[c.Table] = cols
		}
		if cols[c.Name] {
			continue
		}

		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, c.Table, c.Name, c.Definition)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return added, fmt.Errorf("add %s.%s: %w", c.Table, c.Name, err)
		}
		cols[c.Name] = true
		added = append(added, c)
	}
	return added, nil
}

func tableColumns(ctx context.Context, db dbx.DBTX, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}
