package libcal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URIBuilder composes a request URI from path parameters and query
// parameters. Path parameters always precede the query string; query
// parameters keep the order in which they were added.
type URIBuilder struct {
	path  string
	query []string
}

// NewURI starts a URI at path.
func NewURI(path string) *URIBuilder {
	return &URIBuilder{path: path}
}

// AddParam appends value as a path segment. Lists are joined with commas.
// Nil and empty values are skipped.
func (b *URIBuilder) AddParam(value interface{}) *URIBuilder {
	s, ok := formatValue(value, url.PathEscape)
	if !ok {
		return b
	}

	b.path = strings.TrimRight(b.path, "/") + "/" + s

	return b
}

// AddQuery appends name=value. Nil values are skipped, booleans are sent
// as 1 or 0 and lists are joined with commas.
func (b *URIBuilder) AddQuery(name string, value interface{}) *URIBuilder {
	s, ok := formatValue(value, escapeQueryValue)
	if !ok {
		return b
	}

	b.query = append(b.query, url.QueryEscape(name)+"="+s)

	return b
}

// AddQueryAlways appends name=value, or just name when value is nil.
func (b *URIBuilder) AddQueryAlways(name string, value interface{}) *URIBuilder {
	s, ok := formatValue(value, escapeQueryValue)
	if !ok {
		b.query = append(b.query, url.QueryEscape(name))

		return b
	}

	b.query = append(b.query, url.QueryEscape(name)+"="+s)

	return b
}

// String returns the composed URI.
func (b *URIBuilder) String() string {
	if len(b.query) == 0 {
		return b.path
	}

	return b.path + "?" + strings.Join(b.query, "&")
}

// escapeQueryValue escapes like url.QueryEscape but leaves list commas readable.
func escapeQueryValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2C", ",")
}

func formatValue(value interface{}, escape func(string) string) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return escape(v), true
	case *string:
		if v == nil {
			return "", false
		}

		return escape(*v), true
	case int:
		return strconv.Itoa(v), true
	case *int:
		if v == nil {
			return "", false
		}

		return strconv.Itoa(*v), true
	case bool:
		return formatBool(v), true
	case *bool:
		if v == nil {
			return "", false
		}

		return formatBool(*v), true
	case []int:
		if len(v) == 0 {
			return "", false
		}

		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}

		return strings.Join(parts, ","), true
	case []string:
		if len(v) == 0 {
			return "", false
		}

		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = escape(s)
		}

		return strings.Join(parts, ","), true
	default:
		return escape(fmt.Sprint(v)), true
	}
}

func formatBool(v bool) string {
	if v {
		return "1"
	}

	return "0"
}
