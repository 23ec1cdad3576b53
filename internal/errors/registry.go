package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Misuse assertions (R001-R009)
	// ============================================

	"R001": {
		Category: CategoryMisuse,
		Message:  "Reconcile on a closed cursor",
	},
	"R002": {
		Category: CategoryMisuse,
		Message:  "Reserved key written directly",
	},
	"R003": {
		Category: CategoryMisuse,
		Message:  "Invalid subscription key",
		Detail:   "Subscription identifiers must be non-empty strings without spaces.",
	},
	"R004": {
		Category: CategoryMisuse,
		Message:  "Projection marker without a slot map",
		Detail:   "vdom.Slot may only appear in the output of a component render hook.",
	},
	"R005": {
		Category: CategoryMisuse,
		Message:  "Cursor closed twice",
	},

	// ============================================
	// Missing context (R010-R019)
	// ============================================

	"R010": {
		Category: CategoryContext,
		Message:  "Reference decoded without an object table",
	},
	"R011": {
		Category: CategoryContext,
		Message:  "Accessor used outside an invocation",
		Detail:   "CurrentInvocation is only available while a render hook or event handler runs.",
	},

	// ============================================
	// Render errors (R020-R029)
	// ============================================

	"R020": {
		Category: CategoryRender,
		Message:  "Render hook failed",
	},
	"R021": {
		Category: CategoryRender,
		Message:  "Symbol is not a render function",
	},
	"R022": {
		Category: CategoryRender,
		Message:  "Symbol not found",
	},
	"R023": {
		Category: CategoryRender,
		Message:  "Event handler failed",
	},

	// ============================================
	// Codec errors (R030-R039)
	// ============================================

	"R030": {
		Category: CategoryCodec,
		Message:  "Malformed state block",
	},
	"R031": {
		Category: CategoryCodec,
		Message:  "Unknown reference in state block",
	},
	"R032": {
		Category: CategoryCodec,
		Message:  "Malformed attribute value",
	},
	"R033": {
		Category: CategoryCodec,
		Message:  "Malformed subscription token",
	},
	"R034": {
		Category: CategoryCodec,
		Message:  "Malformed locator",
	},
	"R035": {
		Category: CategoryCodec,
		Message:  "Cyclic plain record",
		Detail:   "Records without a reactive wrapper must be tree-shaped.",
	},

	// ============================================
	// Config errors (R040-R049)
	// ============================================

	"R040": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"R041": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
