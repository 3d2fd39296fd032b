package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "internal error",
			code:    "R001",
			wantMsg: "Unknown token",
			wantCat: CategoryInternal,
		},
		{
			name:    "runtime error",
			code:    "R003",
			wantMsg: "Element not found",
			wantCat: CategoryRuntime,
		},
		{
			name:    "protocol error",
			code:    "R011",
			wantMsg: "Malformed frame",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryRuntime, "file %q not found", "tree.yaml")
	if err.Message != `file "tree.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "tree.yaml" not found`)
	}
	if err.Category != CategoryRuntime {
		t.Errorf("Category = %q, want %q", err.Category, CategoryRuntime)
	}
}

func TestVmError_Error(t *testing.T) {
	err := New("R003")
	if got, want := err.Error(), "R003: Element not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("R003").WithDetail("bh-7")
	if got, want := err.Error(), "R003: Element not found (bh-7)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &VmError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}
}

func TestVmError_Is(t *testing.T) {
	sentinel := New("R003")
	err := fmt.Errorf("flush: %w", New("R003").WithDetail("bh-1"))

	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should match errors with the same code")
	}
	if stderrors.Is(err, New("R004")) {
		t.Error("errors.Is should not match a different code")
	}
	if stderrors.Is(err, &VmError{Message: "no code"}) {
		t.Error("errors.Is should not match an uncoded target")
	}
}

func TestVmError_WithLocation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "tree.yaml")
	content := `tag: ul
children:
  - tag: li
    key: "1"
    attrs: {id: x}
  - tag: li
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("R010").WithLocation(tmpFile, 5, 12)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile {
		t.Errorf("Location.File = %q, want %q", err.Location.File, tmpFile)
	}
	if err.Location.Line != 5 {
		t.Errorf("Location.Line = %d, want %d", err.Location.Line, 5)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestVmError_Wrap(t *testing.T) {
	inner := &testError{msg: "socket closed"}
	err := New("R007").Wrap(inner)

	if err.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped error")
	}
	if !strings.Contains(err.Error(), "socket closed") {
		t.Errorf("Error() = %q, should mention the wrapped error", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R007") != nil {
		t.Error("FromError(nil) should return nil")
	}

	ve := New("R003")
	if FromError(ve, "R007") != ve {
		t.Error("FromError should return VmError unchanged")
	}

	wrapped := FromError(&testError{msg: "boom"}, "R007")
	if wrapped.Code != "R007" {
		t.Errorf("Code = %q, want R007", wrapped.Code)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{&Location{File: "a.yaml", Line: 3, Column: 9}, "a.yaml:3:9"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "tree.yaml")
	content := `tag: div
attrs:
  id: main
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("R010").
		WithLocation(tmpFile, 3, 3).
		Wrap(New("R005").WithSuggestion("Use key: instead of an id attribute"))

	want := "error[R010]: Invalid tree description\n" +
		"  --> " + tmpFile + ":3:3\n" +
		"  |\n" +
		"1 | tag: div\n" +
		"2 | attrs:\n" +
		"3 |   id: main\n" +
		"  |   ^\n" +
		"  = The tree description file could not be converted into nodes.\n" +
		"  caused by R005: Reserved attribute\n" +
		"  hint: Use key: instead of an id attribute\n" +
		"  docs: https://vmirror.dev/docs/errors/R010\n"
	if got := err.Format(); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFprintCompact(t *testing.T) {
	var buf bytes.Buffer
	err := New("R010").WithLocation("tree.json", 10, 5)
	if werr := Fprint(&buf, err, StyleCompact); werr != nil {
		t.Fatal(werr)
	}
	want := "tree.json:10:5: R010: Invalid tree description\n"
	if got := buf.String(); got != want {
		t.Errorf("Fprint(compact) = %q, want %q", got, want)
	}
}

func TestFprintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("loading: %w", New("R010").WithDetail("a.yaml").Wrap(New("R005").Wrap(stderrors.New("boom"))))
	if werr := Fprint(&buf, err, StyleJSON); werr != nil {
		t.Fatal(werr)
	}

	var got Report
	if jerr := json.Unmarshal(buf.Bytes(), &got); jerr != nil {
		t.Fatalf("output is not JSON: %v\n%s", jerr, buf.String())
	}
	want := Report{
		Code:     "R010",
		Category: CategoryInput,
		Message:  "Invalid tree description",
		Detail:   "a.yaml",
		DocURL:   "https://vmirror.dev/docs/errors/R010",
		Causes: []Cause{
			{Code: "R005", Message: "Reserved attribute"},
			{Message: "boom"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestFprintPlainError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := []struct {
		style Style
		want  string
	}{
		{StyleText, "error: boom\n"},
		{StyleCompact, "boom\n"},
		{StyleJSON, `{"message":"boom"}` + "\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Fprint(&buf, stderrors.New("boom"), tt.style)
		if got := buf.String(); got != tt.want {
			t.Errorf("Fprint(%d) = %q, want %q", tt.style, got, tt.want)
		}
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", StyleText, false},
		{"text", StyleText, false},
		{"JSON", StyleJSON, false},
		{"compact", StyleCompact, false},
		{"xml", StyleText, true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStyle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("R005")
	if !ok {
		t.Fatal("R005 should exist")
	}
	if template.Message != "Reserved attribute" {
		t.Errorf("Message = %q", template.Message)
	}

	if _, ok := GetTemplate("R999"); ok {
		t.Error("R999 should not exist")
	}
	if len(GetAllCodes()) != len(registry) {
		t.Error("GetAllCodes should list every registered code")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got = wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
