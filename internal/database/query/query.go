package query

import (
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const MaxResultsDefault = 100

// Filter provides a structure for common list parameters.
type Filter struct {
	Offset  uint64 `json:"offset,omitempty" form:"offset" binding:"gte=0"`
	Limit   uint64 `json:"limit,omitempty" form:"limit" binding:"gte=0,lte=1000"`
	Desc    bool   `json:"desc,omitempty" form:"desc"`
	OrderBy string `json:"order_by,omitempty" form:"order_by"`
}

// ApplySafeOrder is used to ensure that a user requested column is valid. This
// is used to prevent potential injection attacks as there is no parameterized
// order by value.
func (qf Filter) ApplySafeOrder(builder sq.SelectBuilder, validColumns map[string][]string, fallback string) sq.SelectBuilder {
	orderBy := strings.ToLower(qf.OrderBy)
	column := ""

	for prefix, columns := range validColumns {
		if slices.Contains(columns, orderBy) {
			column = prefix + orderBy

			break
		}
	}

	if column == "" {
		column = fallback
	}

	if qf.Desc {
		return builder.OrderBy(column + " DESC")
	}

	return builder.OrderBy(column + " ASC")
}

func (qf Filter) ApplyLimitOffsetDefault(builder sq.SelectBuilder) sq.SelectBuilder {
	return qf.ApplyLimitOffset(builder, MaxResultsDefault)
}

func (qf Filter) ApplyLimitOffset(builder sq.SelectBuilder, maxLimit uint64) sq.SelectBuilder {
	limit := qf.Limit
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}

	builder = builder.Limit(limit)

	if qf.Offset > 0 {
		builder = builder.Offset(qf.Offset)
	}

	return builder
}
