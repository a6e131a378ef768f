package orm

import (
	"fmt"

	"github.com/mickamy/restorm/filter"
)

// Dialect abstracts the query-parameter conventions of a REST API.
type Dialect interface {
	// Filter encodes the predicate tree into query parameters.
	Filter(cond filter.Condition) (Params, error)

	// SortParam is the parameter carrying comma-separated sort keys.
	SortParam() string

	// FieldsParam is the parameter restricting the returned fields, or ""
	// when the API cannot restrict them.
	FieldsParam() string

	// ExpandParam is the parameter asking the server to inline relations.
	ExpandParam() string

	// CountHeader is the response header of a HEAD request that carries
	// the total number of matching rows.
	CountHeader() string
}

// Yii is the Dialect of Yii2 REST controllers: filter[...], sort, fields,
// expand and X-Pagination-Total-Count.
var Yii Dialect = bracketDialect{expand: "expand", count: "X-Pagination-Total-Count"}

// JSONAPI is the Dialect of JSON:API servers: filter[...], sort,
// fields, include and X-Total-Count.
var JSONAPI Dialect = bracketDialect{expand: "include", count: "X-Total-Count"}

// JSONServer is the Dialect of json-server style APIs such as
// JSONPlaceholder: flat attr=value filters with repeated keys for
// membership, _sort, _embed and X-Total-Count. OR conditions cannot be
// expressed.
var JSONServer Dialect = flatDialect{}

// bracketDialect nests the whole predicate tree under filter[...].
type bracketDialect struct {
	expand string
	count  string
}

func (d bracketDialect) Filter(cond filter.Condition) (Params, error) {
	if err := checkOperands(cond); err != nil {
		return nil, err
	}
	return Params{"filter": cond.Encode()}, nil
}

func (bracketDialect) SortParam() string     { return "sort" }
func (bracketDialect) FieldsParam() string   { return "fields" }
func (d bracketDialect) ExpandParam() string { return d.expand }
func (d bracketDialect) CountHeader() string { return d.count }

type flatDialect struct{}

func (flatDialect) Filter(cond filter.Condition) (Params, error) {
	if err := checkOperands(cond); err != nil {
		return nil, err
	}
	p := make(Params)
	if err := flatten(p, cond); err != nil {
		return nil, err
	}
	return p, nil
}

func flatten(p Params, cond filter.Condition) error {
	switch c := cond.(type) {
	case filter.EqExpr:
		return setOnce(p, c.Attribute, c.Value)
	case filter.InExpr:
		return setOnce(p, c.Attribute, repeated(c.Values))
	case filter.AndExpr:
		for _, child := range c {
			if err := flatten(p, child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("orm: json-server dialect cannot express %s", cond)
	}
	return nil
}

// checkOperands rejects conditions that would drop out of the encoded
// query string and leave it unfiltered: nil operands and empty IN lists.
func checkOperands(cond filter.Condition) error {
	switch c := cond.(type) {
	case filter.EqExpr:
		if c.Value == nil {
			return fmt.Errorf("orm: cannot filter %q by null", c.Attribute)
		}
	case filter.InExpr:
		if len(c.Values) == 0 {
			return fmt.Errorf("orm: cannot filter %q by an empty IN list", c.Attribute)
		}
		for _, v := range c.Values {
			if v == nil {
				return fmt.Errorf("orm: cannot filter %q by null", c.Attribute)
			}
		}
	case filter.AndExpr:
		for _, child := range c {
			if err := checkOperands(child); err != nil {
				return err
			}
		}
	case filter.OrExpr:
		for _, child := range c {
			if err := checkOperands(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func setOnce(p Params, key string, value any) error {
	if _, dup := p[key]; dup {
		return fmt.Errorf("orm: json-server dialect cannot constrain %q twice", key)
	}
	p[key] = value
	return nil
}

func (flatDialect) SortParam() string   { return "_sort" }
func (flatDialect) FieldsParam() string { return "" }
func (flatDialect) ExpandParam() string { return "_embed" }
func (flatDialect) CountHeader() string { return "X-Total-Count" }
