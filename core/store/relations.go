package store

import "fmt"

// ForeignKey is a reference from Table.Column to RefTable.RefColumn
type ForeignKey struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

// Relationship describes how an embedded table relates to the table it is embedded in
type Relationship struct {
	ForeignKey
	// Many is true if the embedded table references the parent (one-to-many,
	// embedded as a list); false if the parent references the embedded table
	// (many-to-one, embedded as a single row or null).
	Many bool
}

// ResolveEmbed finds the relationship used to embed table name into rows of table.
// A reference from table to name takes precedence over a reference from name to
// table. More than one candidate in the winning direction is ambiguous.
func ResolveEmbed(foreignKeys []ForeignKey, table, name string) (Relationship, error) {
	var toOne, toMany []ForeignKey
	for _, fk := range foreignKeys {
		if fk.Table == table && fk.RefTable == name {
			toOne = append(toOne, fk)
		}
		if fk.Table == name && fk.RefTable == table {
			toMany = append(toMany, fk)
		}
	}
	switch {
	case len(toOne) == 1:
		return Relationship{ForeignKey: toOne[0]}, nil
	case len(toOne) > 1:
		return Relationship{}, fmt.Errorf("%w: more than one relationship from '%s' to '%s'", ErrBadSelect, table, name)
	case len(toMany) == 1:
		return Relationship{ForeignKey: toMany[0], Many: true}, nil
	case len(toMany) > 1:
		return Relationship{}, fmt.Errorf("%w: more than one relationship from '%s' to '%s'", ErrBadSelect, name, table)
	}
	return Relationship{}, fmt.Errorf("%w: no relationship between '%s' and '%s'", ErrBadSelect, table, name)
}
