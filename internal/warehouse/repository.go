package warehouse

import (
	"context"
	"errors"
	"fmt"

	"dataplatform/quality-gate/internal/security"
)

var ErrUnsafeIdentifier = errors.New("unsafe identifier")

// Repository reads the curated marts. Table and column names are
// interpolated into SQL, so every identifier is validated first.
type Repository struct {
	Store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{Store: store}
}

func checkTable(table string) error {
	if !security.IsSafeQualifiedIdentifier(table) {
		return fmt.Errorf("%w: table %q", ErrUnsafeIdentifier, table)
	}
	return nil
}

func checkColumn(column string) error {
	if !security.IsSafeIdentifier(column) {
		return fmt.Errorf("%w: column %q", ErrUnsafeIdentifier, column)
	}
	return nil
}

func (r *Repository) RowCount(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	row := r.Store.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TableColumns returns the column names of a table in ordinal order.
func (r *Repository) TableColumns(ctx context.Context, table string) ([]string, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)
	rows, err := r.Store.Pool.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns := []string{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (r *Repository) NullCount(ctx context.Context, table, column string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if err := checkColumn(column); err != nil {
		return 0, err
	}
	row := r.Store.Pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE %s IS NULL`, table, column))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) DistinctCount(ctx context.Context, table, column string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if err := checkColumn(column); err != nil {
		return 0, err
	}
	row := r.Store.Pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(DISTINCT %s) FROM %s`, column, table))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TextLengthViolations returns the ids of rows whose text length falls
// outside [minChars, maxChars], capped at limit.
func (r *Repository) TextLengthViolations(ctx context.Context, table, idColumn, textColumn string, minChars, maxChars, limit int) ([]string, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkColumn(idColumn); err != nil {
		return nil, err
	}
	if err := checkColumn(textColumn); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Store.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s::text FROM %s
		WHERE length(%s) < $1 OR length(%s) > $2
		ORDER BY 1 LIMIT $3`, idColumn, table, textColumn, textColumn),
		minChars, maxChars, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchDocuments reads the curated corpus ordered by id. limit <= 0 means all rows.
func (r *Repository) FetchDocuments(ctx context.Context, table string, limit int) ([]DocumentRow, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id::text, domain, text FROM %s ORDER BY id`, table)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := r.Store.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := []DocumentRow{}
	for rows.Next() {
		var doc DocumentRow
		if err := rows.Scan(&doc.ID, &doc.Domain, &doc.Text); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func splitQualified(table string) (schema, name string) {
	for i := 0; i < len(table); i++ {
		if table[i] == '.' {
			return table[:i], table[i+1:]
		}
	}
	return "public", table
}
