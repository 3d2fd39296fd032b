package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Style selects how Fprint renders an error.
type Style int

const (
	// StyleText is the multi-line terminal report with a source excerpt.
	StyleText Style = iota
	// StyleCompact is a single line, grep friendly.
	StyleCompact
	// StyleJSON is a Report encoded as one JSON object.
	StyleJSON
)

// ParseStyle maps text, compact or json to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return StyleText, nil
	case "compact":
		return StyleCompact, nil
	case "json":
		return StyleJSON, nil
	}
	return StyleText, New("C122").
		WithDetailf("unknown error format %q", s).
		WithSuggestion("Use text, compact or json")
}

// Report is the serializable form of an error and the chain of errors it
// wraps.
type Report struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	DocURL     string    `json:"docUrl,omitempty"`
	Causes     []Cause   `json:"causes,omitempty"`
}

// Cause is one wrapped error below the reported one.
type Cause struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewReport builds a Report for err. Plain errors become a report with
// only a message.
func NewReport(err error) *Report {
	var ve *VmError
	if !errors.As(err, &ve) {
		return &Report{Message: err.Error()}
	}
	rep := &Report{
		Code:       ve.Code,
		Category:   ve.Category,
		Message:    ve.Message,
		Detail:     ve.Detail,
		Location:   ve.Location,
		Suggestion: ve.Suggestion,
		DocURL:     ve.DocURL,
	}
	for cause := ve.Wrapped; cause != nil; {
		next, ok := cause.(*VmError)
		if !ok {
			rep.Causes = append(rep.Causes, Cause{Message: cause.Error()})
			break
		}
		msg := next.Message
		if next.Detail != "" {
			msg += " (" + next.Detail + ")"
		}
		rep.Causes = append(rep.Causes, Cause{Code: next.Code, Message: msg})
		if rep.Suggestion == "" {
			rep.Suggestion = next.Suggestion
		}
		cause = next.Wrapped
	}
	return rep
}

// Fprint writes err to w in the given style.
func Fprint(w io.Writer, err error, style Style) error {
	switch style {
	case StyleCompact:
		_, werr := io.WriteString(w, compact(err)+"\n")
		return werr
	case StyleJSON:
		return json.NewEncoder(w).Encode(NewReport(err))
	}
	var ve *VmError
	if errors.As(err, &ve) {
		_, werr := io.WriteString(w, ve.Format())
		return werr
	}
	_, werr := fmt.Fprintf(w, "%s %s\n", red(bold("error:")), err.Error())
	return werr
}

func compact(err error) string {
	var ve *VmError
	if errors.As(err, &ve) && ve.Location != nil {
		return ve.Location.String() + ": " + err.Error()
	}
	return err.Error()
}

// Format renders e for a terminal:
//
//	error[R010]: Invalid tree description
//	  --> tree.yaml:3:3
//	   |
//	 3 |   id: main
//	   |   ^
//	  = the detail text
//	  caused by R005: Reserved attribute
//	  hint: use key: instead
//	  docs: https://vmirror.dev/docs/errors/R010
func (e *VmError) Format() string {
	rep := NewReport(e)
	var b strings.Builder

	head := "error"
	if rep.Code != "" {
		head += "[" + rep.Code + "]"
	}
	b.WriteString(red(bold(head+":")) + " " + bold(rep.Message) + "\n")

	if e.Location != nil {
		b.WriteString(blue("  --> ") + e.Location.String() + "\n")
		writeExcerpt(&b, e.Location, e.Context)
	}

	detail := rep.Detail
	if detail == "" {
		if t, ok := registry[e.Code]; ok {
			detail = t.Detail
		}
	}
	for i, line := range wrapText(detail, 72) {
		prefix := "    "
		if i == 0 {
			prefix = blue("  = ")
		}
		b.WriteString(prefix + line + "\n")
	}

	for _, c := range rep.Causes {
		b.WriteString(gray("  caused by "))
		if c.Code != "" {
			b.WriteString(c.Code + ": ")
		}
		b.WriteString(c.Message + "\n")
	}
	if rep.Suggestion != "" {
		b.WriteString(cyan("  hint: ") + rep.Suggestion + "\n")
	}
	if rep.DocURL != "" {
		b.WriteString(gray("  docs: "+rep.DocURL) + "\n")
	}
	return b.String()
}

// writeExcerpt writes the context lines around loc with a gutter, marking
// the column of loc with a caret.
func writeExcerpt(b *strings.Builder, loc *Location, lines []string) {
	if len(lines) == 0 {
		return
	}
	first := loc.Line - contextLines/2
	if first < 1 {
		first = 1
	}
	width := len(fmt.Sprint(first + len(lines) - 1))
	gutter := strings.Repeat(" ", width+1) + blue("|")

	b.WriteString(gutter + "\n")
	for i, line := range lines {
		n := first + i
		fmt.Fprintf(b, "%s %s %s\n", blue(fmt.Sprintf("%*d", width, n)), blue("|"), line)
		if n == loc.Line && loc.Column > 0 {
			b.WriteString(gutter + " " + strings.Repeat(" ", loc.Column-1) + red("^") + "\n")
		}
	}
}

// wrapText splits text into lines of at most width bytes, breaking at
// spaces. A single longer word gets its own line.
func wrapText(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
