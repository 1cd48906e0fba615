package csv

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "single row",
			input: "a,b,c",
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "trailing newline produces no phantom row",
			input: "a,b\n",
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "trailing comma yields empty final field",
			input: "a,\n",
			want:  [][]string{{"a", ""}},
		},
		{
			name:  "crlf line endings",
			input: "a,b\r\nc,d\r\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "lone carriage return is literal",
			input: "a\rb,c",
			want:  [][]string{{"a\rb", "c"}},
		},
		{
			name:  "quoted field with comma",
			input: `"a,b",c`,
			want:  [][]string{{"a,b", "c"}},
		},
		{
			name:  "escaped quotes",
			input: `"say ""hi""",x`,
			want:  [][]string{{`say "hi"`, "x"}},
		},
		{
			name:  "embedded newline inside quotes",
			input: "\"line1\nline2\",x",
			want:  [][]string{{"line1\nline2", "x"}},
		},
		{
			name: "quoted field mixing comma quote and newline",
			// One row, one field: a,"b\nc"
			input: "\"a,\"\"b\nc\"\"\"\n",
			want:  [][]string{{"a,\"b\nc\""}},
		},
		{
			name:  "empty fields",
			input: ",,\n",
			want:  [][]string{{"", "", ""}},
		},
		{
			name:  "empty line yields single empty field row",
			input: "a\n\nb",
			want:  [][]string{{"a"}, {""}, {"b"}},
		},
		{
			name: "mid-field quote toggles quote mode",
			// Non-RFC-4180 on purpose: the quote after 'ab' opens quote
			// mode, so the comma inside is literal.
			input: `ab"cd,ef"gh`,
			want:  [][]string{{"abcd,efgh"}},
		},
		{
			name:  "unterminated quote consumes rest of input",
			input: "\"a,b\nc",
			want:  [][]string{{"a,b\nc"}},
		},
		{
			name:  "multibyte content preserved",
			input: "名称,值\n表格,１２３\n",
			want:  [][]string{{"名称", "值"}, {"表格", "１２３"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNeverDropsBytes(t *testing.T) {
	// Totality check: every non-structural byte of an unquoted input must
	// land in some field.
	input := "x1,y2\nz3"
	rows := Parse(input)
	var got int
	for _, row := range rows {
		for _, f := range row {
			got += len(f)
		}
	}
	want := len("x1y2z3")
	if got != want {
		t.Errorf("field bytes = %d, want %d", got, want)
	}
}

func TestIsBlankRow(t *testing.T) {
	if !isBlankRow([]string{"", "  ", "\t"}) {
		t.Error("whitespace-only row should be blank")
	}
	if isBlankRow([]string{"", "x"}) {
		t.Error("row with content should not be blank")
	}
	if !isBlankRow(nil) {
		t.Error("empty row should be blank")
	}
}
