package access

import "gorm.io/gorm/clause"

// False matches no rows.
var False = clause.Expr{SQL: "FALSE"}

// AnyOf ORs the expressions. A single expression is returned as is since
// gorm renders a one-element OR group as a bare OR against its neighbour.
func AnyOf(exprs ...clause.Expression) clause.Expression {
	switch len(exprs) {
	case 0:
		return False
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}

// AllOf ANDs the expressions; no expressions means no restriction.
func AllOf(exprs ...clause.Expression) clause.Expression {
	switch len(exprs) {
	case 0:
		return clause.Expr{SQL: "TRUE"}
	case 1:
		return exprs[0]
	default:
		return clause.And(exprs...)
	}
}
