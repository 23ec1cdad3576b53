package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewUsesRegistry(t *testing.T) {
	err := New("R001")
	if err.Category != CategoryMisuse {
		t.Errorf("Category = %q, want %q", err.Category, CategoryMisuse)
	}
	if err.Message == "" || err.Message == "Unknown error" {
		t.Errorf("Message = %q, want registered message", err.Message)
	}
	if !err.Fatal() {
		t.Error("misuse errors should be fatal")
	}
}

func TestUnknownCode(t *testing.T) {
	err := New("R999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Fatal() {
		t.Error("unknown codes should not be fatal")
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("R030").WithDetail("key %q", "a").Wrap(cause)
	got := err.Error()
	for _, want := range []string{"R030", "Malformed state block", `key "a"`, "boom"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !stderrors.Is(fmt.Errorf("outer: %w", err), New("R030")) {
		t.Error("errors.Is should match by code")
	}
}

func TestFatalPanicsWithError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Fatal did not panic")
		}
		if !IsFatal(r) {
			t.Fatalf("IsFatal(%v) = false", r)
		}
		if !HasCode(r.(error), "R011") {
			t.Errorf("panic value %v does not carry R011", r)
		}
	}()
	Fatal("R011", "host %s", "div")
}

func TestIsFatalRejectsOtherValues(t *testing.T) {
	cases := []any{"string", stderrors.New("plain"), New("R020"), nil}
	for _, c := range cases {
		if IsFatal(c) {
			t.Errorf("IsFatal(%v) = true", c)
		}
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R030") != nil {
		t.Error("FromError(nil) should be nil")
	}
	orig := New("R032")
	if FromError(fmt.Errorf("x: %w", orig), "R030") != orig {
		t.Error("FromError should unwrap an existing *Error")
	}
	wrapped := FromError(stderrors.New("plain"), "R030")
	if wrapped.Code != "R030" {
		t.Errorf("Code = %q", wrapped.Code)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R022").With("locator", "./todo#item")
	out := err.Format()
	if !strings.Contains(out, "ERROR R022: Symbol not found") {
		t.Errorf("Format() header missing: %q", out)
	}
	if !strings.Contains(out, "locator: ./todo#item") {
		t.Errorf("Format() fields missing: %q", out)
	}
	if got := err.FormatCompact(); got != "R022: Symbol not found" {
		t.Errorf("FormatCompact() = %q", got)
	}
	if js := err.FormatJSON(); !strings.Contains(js, `"code":"R022"`) {
		t.Errorf("FormatJSON() = %q", js)
	}
}

func TestAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("R004"); !ok {
		t.Error("R004 should be registered")
	}
}
