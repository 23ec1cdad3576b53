package subs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
)

// Entry is one row of a subscription table.
type Entry struct {
	ID         string
	Count      int
	Subscribed bool
}

// live reports whether the entry must be kept.
func (e Entry) live() bool {
	return e.Count > 0 || e.Subscribed
}

// Token renders the entry as `[count#][!]id`.
func (e Entry) Token() string {
	var b strings.Builder
	if e.Count != 1 {
		b.WriteString(strconv.Itoa(e.Count))
		b.WriteByte('#')
	}
	if e.Subscribed {
		b.WriteByte('!')
	}
	b.WriteString(e.ID)
	return b.String()
}

// Format renders entries as a canonical token list, sorted by identifier.
// Dead entries are skipped.
func Format(entries []Entry) string {
	live := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.live() {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })

	tokens := make([]string, len(live))
	for i, e := range live {
		tokens[i] = e.Token()
	}
	return strings.Join(tokens, " ")
}

// Parse reads a token list written by Format.
func Parse(s string) ([]Entry, error) {
	fields := strings.Fields(s)
	entries := make([]Entry, 0, len(fields))
	for _, tok := range fields {
		e, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseToken(tok string) (Entry, error) {
	e := Entry{Count: 1}
	if i := strings.IndexByte(tok, '#'); i >= 0 {
		n, err := strconv.Atoi(tok[:i])
		if err != nil || n < 0 {
			return Entry{}, errors.New("R033").WithDetail("bad count in %q", tok)
		}
		e.Count = n
		tok = tok[i+1:]
	}
	if strings.HasPrefix(tok, "!") {
		e.Subscribed = true
		tok = tok[1:]
	}
	if tok == "" {
		return Entry{}, errors.New("R033").WithDetail("empty identifier")
	}
	e.ID = tok
	return e, nil
}

// ValidID reports whether id can be stored in a table.
func ValidID(id string) bool {
	if id == "" || strings.HasPrefix(id, "!") {
		return false
	}
	return !strings.ContainsAny(id, " \t\n\r\f#")
}
