package querycache

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Cond is one filter predicate of a query.
type Cond struct {
	Field string
	Op    string
	Value string
}

func Eq(field, value string) Cond {
	return Cond{Field: field, Op: "==", Value: value}
}

// Key describes the shape of a read query. Every component is escaped, so two
// different shapes never render to the same string.
type Key struct {
	Collection string
	DocID      string
	Where      []Cond
	OrderBy    string
	Descending bool
	Limit      int
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(url.QueryEscape(k.Collection))

	if k.DocID != "" {
		b.WriteString("/")
		b.WriteString(url.QueryEscape(k.DocID))
	}

	conds := make([]string, 0, len(k.Where))
	for _, c := range k.Where {
		conds = append(conds, url.QueryEscape(c.Field)+":"+url.QueryEscape(c.Op)+":"+url.QueryEscape(c.Value))
	}
	slices.Sort(conds)
	b.WriteString("?where=")
	b.WriteString(strings.Join(conds, ","))

	b.WriteString("&order=")
	b.WriteString(url.QueryEscape(k.OrderBy))
	if k.OrderBy != "" && k.Descending {
		b.WriteString(":desc")
	}

	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(k.Limit))
	return b.String()
}

func ProductsAllKey() string {
	return Key{Collection: "products"}.String()
}

func ProductKey(id string) string {
	return Key{Collection: "products", DocID: id}.String()
}

func ProductsByCategoryKey(category string, limit int) string {
	return Key{
		Collection: "products",
		Where:      []Cond{Eq("category", category)},
		Limit:      limit,
	}.String()
}

func UserOrdersKey(userID string, limit int) string {
	return Key{
		Collection: "orders",
		Where:      []Cond{Eq("user_id", userID)},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      limit,
	}.String()
}
