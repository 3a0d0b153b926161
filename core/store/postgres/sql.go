package postgres

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/relabs-tech/gestion/core/store"
)

// statement accumulates SQL text and its positional parameters
type statement struct {
	schema      string
	foreignKeys []store.ForeignKey
	parameters  []interface{}
	aliases     int
}

func (s *statement) table(name string) string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(name)
}

func (s *statement) alias() string {
	a := "t" + strconv.Itoa(s.aliases)
	s.aliases++
	return a
}

// parameter adds a parameter and returns its placeholder
func (s *statement) parameter(v interface{}) string {
	s.parameters = append(s.parameters, v)
	return "$" + strconv.Itoa(len(s.parameters))
}

// where renders the filters on alias, or an empty string without filters
func (s *statement) where(alias string, filters []store.Filter) string {
	if len(filters) == 0 {
		return ""
	}
	var conditions []string
	for _, f := range filters {
		column := alias + "." + pq.QuoteIdentifier(f.Column)
		if f.Value == nil {
			conditions = append(conditions, column+" IS NULL")
			continue
		}
		conditions = append(conditions, column+" = "+s.parameter(f.Value))
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// rowExpression renders the jsonb expression for one row of table under alias,
// including embedded relations as correlated sub-selects
func (s *statement) rowExpression(table, alias string, sel store.Selection) (string, error) {
	var parts []string
	if sel.All {
		parts = append(parts, "to_jsonb("+alias+")")
	}
	var pairs []string
	for _, c := range sel.Columns {
		pairs = append(pairs, pq.QuoteLiteral(c), alias+"."+pq.QuoteIdentifier(c))
	}
	for _, embed := range sel.Embeds {
		rel, err := store.ResolveEmbed(s.foreignKeys, table, embed.Name)
		if err != nil {
			return "", err
		}
		inner := s.alias()
		expression, err := s.rowExpression(embed.Name, inner, embed.Selection)
		if err != nil {
			return "", err
		}
		var sub string
		if rel.Many {
			sub = fmt.Sprintf("(SELECT coalesce(jsonb_agg(%s), '[]'::jsonb) FROM %s %s WHERE %s.%s = %s.%s)",
				expression, s.table(embed.Name), inner,
				inner, pq.QuoteIdentifier(rel.Column), alias, pq.QuoteIdentifier(rel.RefColumn))
		} else {
			sub = fmt.Sprintf("(SELECT %s FROM %s %s WHERE %s.%s = %s.%s LIMIT 1)",
				expression, s.table(embed.Name), inner,
				inner, pq.QuoteIdentifier(rel.RefColumn), alias, pq.QuoteIdentifier(rel.Column))
		}
		pairs = append(pairs, pq.QuoteLiteral(embed.Name), sub)
	}
	if len(pairs) > 0 {
		parts = append(parts, "jsonb_build_object("+strings.Join(pairs, ", ")+")")
	}
	if len(parts) == 0 {
		return "'{}'::jsonb", nil
	}
	return strings.Join(parts, " || "), nil
}

// selectQuery renders a complete select statement returning one jsonb column
func (s *statement) selectQuery(query store.Query) (string, error) {
	sel, err := query.Validate()
	if err != nil {
		return "", err
	}
	alias := s.alias()
	expression, err := s.rowExpression(query.Table, alias, sel)
	if err != nil {
		return "", err
	}
	sql := "SELECT " + expression + " FROM " + s.table(query.Table) + " " + alias + s.where(alias, query.Filters)
	if len(query.Orders) > 0 {
		var orders []string
		for _, o := range query.Orders {
			direction := " DESC NULLS FIRST"
			if o.Ascending {
				direction = " ASC NULLS LAST"
			}
			orders = append(orders, alias+"."+pq.QuoteIdentifier(o.Column)+direction)
		}
		sql += " ORDER BY " + strings.Join(orders, ", ")
	}
	if query.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(query.Limit)
	}
	return sql + ";", nil
}

// insertQuery renders an insert of one row, returning the created row as jsonb
func (s *statement) insertQuery(table string, row store.Row) (string, error) {
	if _, err := store.From(table).Validate(); err != nil {
		return "", err
	}
	columns, values, err := s.assignments(row)
	if err != nil {
		return "", err
	}
	alias := s.alias()
	sql := "INSERT INTO " + s.table(table) + " AS " + alias
	if len(columns) == 0 {
		sql += " DEFAULT VALUES"
	} else {
		sql += " (" + strings.Join(columns, ",") + ") VALUES (" + strings.Join(values, ",") + ")"
	}
	return sql + " RETURNING to_jsonb(" + alias + ");", nil
}

// updateQuery renders an update, returning the updated rows as jsonb
func (s *statement) updateQuery(table string, values store.Row, filters []store.Filter) (string, error) {
	if err := store.RequireFilters(table, filters); err != nil {
		return "", err
	}
	if _, err := store.From(table).Validate(); err != nil {
		return "", err
	}
	columns, placeholders, err := s.assignments(values)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: nothing to update in %s", store.ErrBadSelect, table)
	}
	var sets []string
	for i := range columns {
		sets = append(sets, columns[i]+" = "+placeholders[i])
	}
	alias := s.alias()
	return "UPDATE " + s.table(table) + " AS " + alias + " SET " + strings.Join(sets, ", ") +
		s.where(alias, filters) + " RETURNING to_jsonb(" + alias + ");", nil
}

// deleteQuery renders a delete, returning the deleted rows as jsonb
func (s *statement) deleteQuery(table string, filters []store.Filter) (string, error) {
	if err := store.RequireFilters(table, filters); err != nil {
		return "", err
	}
	if _, err := store.From(table).Validate(); err != nil {
		return "", err
	}
	alias := s.alias()
	return "DELETE FROM " + s.table(table) + " AS " + alias + s.where(alias, filters) +
		" RETURNING to_jsonb(" + alias + ");", nil
}

// assignments returns quoted column names and placeholders in a stable order.
// Nested objects and lists are passed as JSON text.
func (s *statement) assignments(row store.Row) (columns, placeholders []string, err error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := store.From(k).Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid column '%s'", store.ErrBadSelect, k)
		}
		value, err := parameterValue(row[k])
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, pq.QuoteIdentifier(k))
		placeholders = append(placeholders, s.parameter(value))
	}
	return columns, placeholders, nil
}
