package vdom

import "strings"

// EventPrefix starts event handler attribute names ("on:click").
const EventPrefix = "on:"

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Prop sets an arbitrary attribute or component prop.
func Prop(key string, value any) Attr { return attr(key, value) }

// On binds event to the handler named by a symbol locator.
func On(event, locator string) Attr { return attr(EventPrefix+event, locator) }

// SlotName sends a projected child to the named slot.
func SlotName(name string) Attr { return attr(SlotAttr, name) }

// BasePath sets the base for relative locators below this element.
func BasePath(base string) Attr { return attr("rs:base", base) }

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining non-empty classes with spaces.
func Class(classes ...string) Attr {
	parts := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return attr("class", strings.Join(parts, " "))
}

// ClassIf returns class when cond holds, and "" otherwise. Meant for Class.
func ClassIf(cond bool, class string) string {
	if cond {
		return class
	}
	return ""
}

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// Link and form attributes

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", value) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return attr("placeholder", text) }

// Checked sets the checked attribute. An unchecked box has no attribute.
func Checked(checked bool) Attr {
	if !checked {
		return Attr{}
	}
	return attr("checked", "")
}

// Disabled sets the disabled attribute when disabled is true.
func Disabled(disabled bool) Attr {
	if !disabled {
		return Attr{}
	}
	return attr("disabled", "")
}

// Src sets the src attribute.
func Src(url string) Attr { return attr("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return attr("alt", text) }
