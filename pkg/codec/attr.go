package codec

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// RefPrefix starts a reference token in an attribute value.
const RefPrefix = "*"

// Referencer records that an attribute references an object. It is
// called once per reference written.
type Referencer interface {
	Reference(o *reactive.Object)
}

// Resolver looks up live objects by identifier.
type Resolver interface {
	Resolve(id string) (*reactive.Object, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id string) (*reactive.Object, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(id string) (*reactive.Object, bool) { return f(id) }

// RegistryResolver resolves identifiers against a registry.
func RegistryResolver(r *reactive.Registry) Resolver {
	return ResolverFunc(func(id string) (*reactive.Object, bool) {
		o := r.Lookup(id)
		return o, o != nil
	})
}

// EncodeAttr encodes v with the attribute grammar. Every object written
// as a reference is reported to refs, which may be nil only when v
// contains no objects.
func EncodeAttr(v any, refs Referencer) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		if needsQuote(x) {
			return quote(x), nil
		}
		return x, nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case *reactive.Object:
		return encodeRef(x, refs), nil
	}

	walked, err := substituteRefs(v, refs, nil)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(walked); err != nil {
		return "", errors.New("R032").Wrap(err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeAttr decodes an attribute value. Decoding a reference without a
// resolver is a fatal error.
func DecodeAttr(s string, res Resolver) (any, error) {
	switch {
	case s == "":
		return "", nil
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case s == "null":
		return nil, nil
	case strings.HasPrefix(s, RefPrefix):
		return resolveRef(s[len(RefPrefix):], res)
	case s[0] == '"':
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return nil, errors.New("R032").WithDetail("%q", s).Wrap(err)
		}
		return str, nil
	case s[0] == '{' || s[0] == '[':
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, errors.New("R032").WithDetail("%q", s).Wrap(err)
		}
		return resolveRefs(v, res)
	}
	if f, ok := parseNumber(s); ok {
		return f, nil
	}
	return s, nil
}

func encodeRef(o *reactive.Object, refs Referencer) string {
	if refs == nil {
		errors.Fatal("R010", "encoding reference %q", o.ID())
	}
	refs.Reference(o)
	return RefPrefix + o.ID()
}

func resolveRef(id string, res Resolver) (any, error) {
	if res == nil {
		errors.Fatal("R010", "reference %q", id)
	}
	o, ok := res.Resolve(id)
	if !ok {
		return nil, errors.New("R031").WithDetail("reference %q", id)
	}
	return o, nil
}

// substituteRefs copies v replacing objects by reference strings.
// Plain records must be tree-shaped.
func substituteRefs(v any, refs Referencer, path []uintptr) (any, error) {
	switch x := v.(type) {
	case *reactive.Object:
		return encodeRef(x, refs), nil
	case reactive.Record:
		if x == nil {
			return nil, nil
		}
		id := identity(x)
		for _, p := range path {
			if p == id {
				return nil, errors.New("R035")
			}
		}
		path = append(path, id)
		out := make(map[string]any, len(x))
		for k, e := range x {
			w, err := substituteRefs(e, refs, path)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			w, err := substituteRefs(e, refs, path)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveRefs(v any, res Resolver) (any, error) {
	switch x := v.(type) {
	case string:
		if strings.HasPrefix(x, RefPrefix) {
			return resolveRef(x[len(RefPrefix):], res)
		}
		return x, nil
	case map[string]any:
		for k, e := range x {
			r, err := resolveRefs(e, res)
			if err != nil {
				return nil, err
			}
			x[k] = r
		}
		return x, nil
	case []any:
		for i, e := range x {
			r, err := resolveRefs(e, res)
			if err != nil {
				return nil, err
			}
			x[i] = r
		}
		return x, nil
	default:
		return v, nil
	}
}

// needsQuote reports whether a bare string would decode as something
// else.
func needsQuote(s string) bool {
	switch s {
	case "true", "false", "null":
		return true
	case "":
		return false
	}
	switch s[0] {
	case '"', '{', '[', '*':
		return true
	}
	_, isNumber := parseNumber(s)
	return isNumber
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// parseNumber accepts JSON number syntax only.
func parseNumber(s string) (float64, bool) {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return 0, false
	}
	return f, true
}

// References returns the identifiers referenced by an encoded attribute
// value, in order of appearance.
func References(s string) ([]string, error) {
	var ids []string
	collect := ResolverFunc(func(id string) (*reactive.Object, bool) {
		ids = append(ids, id)
		return nil, true
	})
	if _, err := DecodeAttr(s, collect); err != nil {
		return nil, err
	}
	return ids, nil
}
