package domain

import "errors"

// ErrInvalidFilter indicates an unknown filter or sort label.
var ErrInvalidFilter = errors.New("invalid filter")

// TransactionFilter selects transactions. Empty fields match all.
type TransactionFilter struct {
	Kind     Kind
	Status   Status
	Currency string // matches either leg
}

// SortField is the key transactions are ordered by.
type SortField string

// Sort fields.
const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByKind   SortField = "kind"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Sort orders.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SortSpec describes how to order transactions.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// DefaultSort lists the most recent transactions first.
var DefaultSort = SortSpec{Field: SortByDate, Order: OrderDesc}

// ParseSortField parses a sort field label. Empty input yields SortByDate.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case "":
		return SortByDate, nil
	case SortByDate, SortByAmount, SortByKind:
		return f, nil
	}

	return "", ErrInvalidFilter
}

// ParseSortOrder parses a sort order label. Empty input yields OrderDesc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return OrderDesc, nil
	case OrderAsc, OrderDesc:
		return o, nil
	}

	return "", ErrInvalidFilter
}
