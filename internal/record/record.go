// Package record defines the line record shared by the generator and the
// external sorter, together with the single ordering applied to it everywhere
// lines are sorted or merged.
//
// A line has the shape "<sequence>.<text>". Only the first '.' separates the
// two parts; text may contain further dots.
package record

import (
	"cmp"
	"strconv"
	"strings"
)

// GeneratorEOL terminates every entry written by the generator.
const GeneratorEOL = "\r\n"

// MaxSeqDigits is the width of the largest uint64 in decimal.
const MaxSeqDigits = 20

// Line is an immutable parsed line.
//
// Raw is always Seq formatted in decimal, a '.', then Text, unless the line
// was parsed from input that had no valid numeric prefix (Seq is then 0 and
// Raw is the input verbatim).
type Line struct {
	Seq  uint64
	Text string
	Raw  string
}

// New builds a Line from its parts.
func New(seq uint64, text string) Line {
	return Line{
		Seq:  seq,
		Text: text,
		Raw:  strconv.FormatUint(seq, 10) + "." + text,
	}
}

// Parse splits a line (without its terminator) at the first '.'.
//
// A line whose first '.' is at position 0, or that has no '.', is kept whole
// as Text with Seq 0. A prefix that is not a valid unsigned decimal also
// yields Seq 0; the text after the dot is kept either way.
func Parse(raw string) Line {
	dot := strings.IndexByte(raw, '.')
	if dot <= 0 {
		return Line{Text: raw, Raw: raw}
	}
	seq, err := strconv.ParseUint(raw[:dot], 10, 64)
	if err != nil {
		seq = 0
	}
	return Line{Seq: seq, Text: raw[dot+1:], Raw: raw}
}

// Compare orders lines by Text (byte-wise) and then by Seq ascending.
// It returns -1, 0 or +1 like strings.Compare.
func Compare(a, b Line) int {
	if c := strings.Compare(a.Text, b.Text); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// Less reports whether a sorts before b.
func Less(a, b Line) bool { return Compare(a, b) < 0 }

// EntrySize is the encoded length of "<seq>.<phrase>\r\n".
func EntrySize(seq uint64, phraseLen int) int {
	return digits(seq) + 1 + phraseLen + len(GeneratorEOL)
}

// MaxEntrySize bounds EntrySize for any sequence number.
func MaxEntrySize(phraseLen int) int {
	return MaxSeqDigits + 1 + phraseLen + len(GeneratorEOL)
}

// AppendEntry appends "<seq>.<phrase>\r\n" to dst.
func AppendEntry(dst []byte, seq uint64, phrase []byte) []byte {
	dst = strconv.AppendUint(dst, seq, 10)
	dst = append(dst, '.')
	dst = append(dst, phrase...)
	return append(dst, GeneratorEOL...)
}

// TrimEOL strips a trailing "\n" or "\r\n".
func TrimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func digits(v uint64) int {
	n := 1
	for v >= 10 {
		v /= 10
		n++
	}
	return n
}
