package catalog

import "strings"

// ingredientSeparator sits between items of a rendered list like ['a', 'b'].
const ingredientSeparator = "', '"

// ParseIngredients extracts the items of a rendered string list such as
//
//	['Salt', 'Pepper', 'Olive Oil']
//
// One leading '[' and one trailing ']' are removed independently, the rest is
// split on "', '", one quote is stripped from each end of every piece, and
// empty pieces are dropped.
//
// The format is lossy: items that themselves contain "', '" or stray quotes
// cannot be recovered exactly. ParseIngredients never fails; it returns an
// empty, non-nil slice when nothing can be extracted.
func ParseIngredients(field string) (items []string) {
	defer func() {
		if recover() != nil {
			items = []string{}
		}
	}()

	s := strings.TrimPrefix(field, "[")
	s = strings.TrimSuffix(s, "]")

	pieces := strings.Split(s, ingredientSeparator)
	items = make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimPrefix(p, "'")
		p = strings.TrimSuffix(p, "'")
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}
