// Package product defines upstream product records and the validity filter
// applied to every category feed.
package product

// Record is a raw upstream product record.
// Only the required fields are inspected; everything else is passed through.
type Record map[string]any

// RequiredField is a field that must be present under one of its aliases.
type RequiredField struct {
	// Name is used in logs only.
	Name string

	// Aliases are the accepted upstream keys, checked in order.
	Aliases []string
}

// DefaultFields are the fields every upstream record must carry.
var DefaultFields = []RequiredField{
	{Name: "title", Aliases: []string{"title_clean", "spbt"}},
	{Name: "media", Aliases: []string{"media_urls", "image_url"}},
	{Name: "link", Aliases: []string{"converted_link", "product_link"}},
}

// present reports whether a decoded JSON value counts as set.
// Empty arrays and objects count as set.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}
