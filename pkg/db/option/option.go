package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption is a gorm scope applied on top of a repository query.
type QueryOption func(*gorm.DB) *gorm.DB

type Operator string

const (
	EQ     Operator = "="
	NEQ    Operator = "<>"
	GT     Operator = ">"
	GTE    Operator = ">="
	LT     Operator = "<"
	LTE    Operator = "<="
	IN     Operator = "IN"
	IsNull Operator = "IS NULL"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow whitelists sortable columns. Empty means SortBy defaults to created_at.
	Allow map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		column := s.SortBy
		if column == "" || (len(s.Allow) > 0 && !s.Allow[column]) {
			column = "created_at"
		}

		desc := strings.EqualFold(s.OrderBy, "desc")
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   desc,
		})
	}
}

func ApplyOperator(c Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		switch c.Operator {
		case IsNull:
			return db.Where(fmt.Sprintf("%s IS NULL", c.Field))
		case IN:
			return db.Where(fmt.Sprintf("%s IN ?", c.Field), c.Value)
		case "":
			return db.Where(fmt.Sprintf("%s = ?", c.Field), c.Value)
		default:
			return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
		}
	}
}

// Where adds a raw condition, for predicates a struct query cannot express
// such as OR groups.
func Where(query string, args ...any) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func Apply(db *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		if opt != nil {
			db = opt(db)
		}
	}
	return db
}
