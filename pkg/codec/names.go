package codec

import "strings"

// CamelCase maps a kebab-cased attribute name to its property name
// ("data-item-id" -> "dataItemId"). Namespaced names are left alone.
func CamelCase(name string) string {
	if strings.ContainsRune(name, ':') || !strings.ContainsRune(name, '-') {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

// KebabCase maps a property name to its attribute name
// ("dataItemId" -> "data-item-id").
func KebabCase(name string) string {
	if strings.ContainsRune(name, ':') {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			b.WriteByte('-')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
