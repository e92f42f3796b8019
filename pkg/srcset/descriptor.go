package srcset

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	unsignedInt = regexp.MustCompile(`^\d+$`)

	// leadingFloat matches the longest numeric prefix of a density value, so
	// "1.5" and "1.5e0" parse while "abc" does not.
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// Diagnostic describes a descriptor token that Parse ignored.
type Diagnostic struct {
	// Entry is the zero-based index of the comma-separated entry.
	Entry int
	// Token is the offending token, or the whole entry when it has no URL.
	Token  string
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("invalid srcset descriptor %q in entry %d: %s", d.Token, d.Entry, d.Reason)
}

// DiagnosticFunc receives diagnostics while parsing.
type DiagnosticFunc func(Diagnostic)

// Parse reads a descriptor string into a CandidateSet, silently dropping
// malformed tokens.
func Parse(descriptor string) CandidateSet {
	return ParseWithDiagnostics(descriptor, nil)
}

// ParseWithDiagnostics reads a descriptor string into a CandidateSet.
//
// Entries are separated by commas and tokens by whitespace. The first token
// of an entry is the URL; the rest are "<uint>w", "<uint>h" or "<float>x".
// Any other token is dropped and reported to report, which may be nil.
// Entries without a URL are dropped as well.
func ParseWithDiagnostics(descriptor string, report DiagnosticFunc) CandidateSet {
	if report == nil {
		report = func(Diagnostic) {}
	}

	var cs CandidateSet
	if strings.TrimSpace(descriptor) == "" {
		return cs
	}

	for i, entry := range strings.Split(descriptor, ",") {
		tokens := strings.Fields(entry)
		if len(tokens) == 0 {
			report(Diagnostic{Entry: i, Token: entry, Reason: "missing url"})
			continue
		}

		c := NewCandidate(tokens[0])
		for _, token := range tokens[1:] {
			if reason := applyToken(&c, token); reason != "" {
				report(Diagnostic{Entry: i, Token: token, Reason: reason})
			}
		}
		cs = append(cs, c)
	}

	return cs
}

// applyToken sets the candidate field named by token's suffix. It returns a
// non-empty reason when the token is rejected.
func applyToken(c *Candidate, token string) string {
	value, suffix := token[:len(token)-1], token[len(token)-1]

	switch suffix {
	case 'w', 'h':
		if !unsignedInt.MatchString(value) {
			return "expected an unsigned integer"
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || n <= 0 {
			return "dimension must be positive"
		}
		if suffix == 'w' {
			c.Width = n
		} else {
			c.Height = n
		}
	case 'x':
		prefix := leadingFloat.FindString(value)
		if prefix == "" {
			return "expected a number"
		}
		n, err := strconv.ParseFloat(prefix, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
			return "density must be a positive number"
		}
		c.Density = n
	default:
		return "unknown descriptor suffix"
	}
	return ""
}

// Descriptor serializes c as a single descriptor entry. Unconstrained
// dimensions and the default density are omitted.
func (c Candidate) Descriptor() string {
	var b strings.Builder
	b.WriteString(c.URL)
	if !math.IsInf(c.Width, 1) {
		b.WriteString(" " + strconv.FormatFloat(c.Width, 'f', -1, 64) + "w")
	}
	if !math.IsInf(c.Height, 1) {
		b.WriteString(" " + strconv.FormatFloat(c.Height, 'f', -1, 64) + "h")
	}
	if c.Density != DefaultDensity {
		b.WriteString(" " + strconv.FormatFloat(c.Density, 'f', -1, 64) + "x")
	}
	return b.String()
}

// Format serializes cs as a descriptor string that Parse reads back.
func Format(cs CandidateSet) string {
	entries := make([]string, len(cs))
	for i, c := range cs {
		entries[i] = c.Descriptor()
	}
	return strings.Join(entries, ", ")
}

// WidthDescriptor serializes cs using width descriptors only, the form
// browsers accept in an img srcset attribute. Candidates without a finite
// width are written as bare URLs.
func WidthDescriptor(cs CandidateSet) string {
	entries := make([]string, len(cs))
	for i, c := range cs {
		if math.IsInf(c.Width, 1) {
			entries[i] = c.URL
			continue
		}
		entries[i] = c.URL + " " + strconv.FormatFloat(c.Width, 'f', -1, 64) + "w"
	}
	return strings.Join(entries, ", ")
}
