// Package phrases holds the read-only dictionary of text fragments the
// generator draws from. A Table never changes after construction, so any
// number of producers may share it without locking.
package phrases

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed phrases.txt
var defaultList string

// ErrEmpty is returned when a dictionary has no usable phrases.
var ErrEmpty = errors.New("phrases: dictionary is empty")

// Table is an immutable phrase dictionary stored as UTF-8 bytes.
type Table struct {
	items  [][]byte
	maxLen int
}

var defaultTable = mustParse(defaultList)

// Default returns the built-in dictionary.
func Default() *Table { return defaultTable }

// New builds a Table from the given phrases. Phrases are normalized to NFC,
// control characters are removed and surrounding whitespace trimmed; phrases
// that end up empty are dropped.
func New(list []string) (*Table, error) {
	t := &Table{items: make([][]byte, 0, len(list))}
	for _, s := range list {
		s = clean(s)
		if s == "" {
			continue
		}
		t.items = append(t.items, []byte(s))
		t.maxLen = max(t.maxLen, len(s))
	}
	if len(t.items) == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// Load reads a dictionary file with one phrase per line. Blank lines and
// lines starting with '#' are skipped.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phrases: open %s: %w", path, err)
	}
	defer f.Close()

	var list []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("phrases: read %s: %w", path, err)
	}
	t, err := New(list)
	if err != nil {
		return nil, fmt.Errorf("phrases: %s: %w", path, err)
	}
	return t, nil
}

// Len is the number of phrases.
func (t *Table) Len() int { return len(t.items) }

// At returns phrase i. The slice must not be modified.
func (t *Table) At(i int) []byte { return t.items[i] }

// Pick returns a uniformly random phrase drawn from r.
func (t *Table) Pick(r *rand.Rand) []byte { return t.items[r.IntN(len(t.items))] }

// MaxLen is the byte length of the longest phrase.
func (t *Table) MaxLen() int { return t.maxLen }

// clean strips control runes (which would break the line format) and
// normalizes to NFC so equal-looking phrases compare equal byte-wise.
func clean(s string) string {
	tr := transform.Chain(runes.Remove(runes.In(unicode.Cc)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

func mustParse(list string) *Table {
	t, err := New(strings.Split(list, "\n"))
	if err != nil {
		panic(err)
	}
	return t
}
