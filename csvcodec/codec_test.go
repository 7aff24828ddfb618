package csvcodec

import (
	"reflect"
	"testing"
)

func TestParseLineQuoting(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{`a,,`, []string{"a", "", ""}},
		{`"a,b""c",d`, []string{`a,b"c`, "d"}},
		{`"x"y,z`, []string{"xy", "z"}},
		{`""`, []string{""}},
		{`"unterminated,still one`, []string{"unterminated,still one"}},
	}
	for _, tc := range cases {
		got := ParseLine(tc.line)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseLine(%q)=%q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestParseNormalizesHeadersAndLineEndings(t *testing.T) {
	doc := Parse(" Title , TX_Freq\r\nA,146520000\rB,0")
	if !reflect.DeepEqual(doc.Headers, []string{"title", "tx_freq"}) {
		t.Fatalf("unexpected headers %q", doc.Headers)
	}
	if len(doc.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(doc.Records))
	}
	if !doc.Records[1].Present || doc.Records[1].Fields[0] != "B" {
		t.Fatalf("unexpected second record %+v", doc.Records[1])
	}
}

func TestParseBlankLinesAreAbsent(t *testing.T) {
	doc := Parse("title\nA\n   \n\nB")
	want := []bool{true, false, false, true}
	if len(doc.Records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(doc.Records))
	}
	for i, present := range want {
		if doc.Records[i].Present != present {
			t.Fatalf("record %d present=%v, want %v", i, doc.Records[i].Present, present)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc := Parse("")
	if len(doc.Headers) != 0 || len(doc.Records) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestEscapeField(t *testing.T) {
	if got := EscapeField(`a,b"c`); got != `"a,b""c"` {
		t.Fatalf("unexpected escape %q", got)
	}
	if got := EscapeField("plain"); got != "plain" {
		t.Fatalf("unexpected escape %q", got)
	}
	if got := EscapeField("two\nlines"); got != "\"two\nlines\"" {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	doc := Document{
		Headers: []string{"title", "tx_freq", "rx_freq"},
		Records: []Record{
			{Fields: []string{"RPT 1", "146000000", "146600000"}, Present: true},
			{},
			{Fields: []string{`a,b"c`, "0", "0"}, Present: true},
			{},
			{},
			{},
			{Fields: []string{"LAST", "446000000", "446000000"}, Present: true},
		},
	}
	text := Serialize(doc)
	got := Parse(text)
	if !reflect.DeepEqual(got.Headers, doc.Headers) {
		t.Fatalf("headers mismatch: %q vs %q", got.Headers, doc.Headers)
	}
	if len(got.Records) != len(doc.Records) {
		t.Fatalf("expected %d records, got %d\n%s", len(doc.Records), len(got.Records), text)
	}
	for i := range doc.Records {
		if got.Records[i].Present != doc.Records[i].Present {
			t.Fatalf("slot %d present mismatch", i)
		}
		if doc.Records[i].Present && !reflect.DeepEqual(got.Records[i].Fields, doc.Records[i].Fields) {
			t.Fatalf("slot %d fields %q, want %q", i, got.Records[i].Fields, doc.Records[i].Fields)
		}
	}
}

func TestSerializeEmptySlotIsBlankLine(t *testing.T) {
	doc := Document{
		Headers: []string{"title"},
		Records: []Record{
			{Fields: []string{"A"}, Present: true},
			{Fields: []string{"B"}, Present: true},
			{Fields: []string{"C"}, Present: true},
			{Fields: []string{"D"}, Present: true},
			{Fields: []string{"E"}, Present: true},
			{},
			{Fields: []string{"G"}, Present: true},
		},
	}
	text := Serialize(doc)
	if text != "title\nA\nB\nC\nD\nE\n\nG" {
		t.Fatalf("unexpected serialization %q", text)
	}
	if Parse(text).Records[5].Present {
		t.Fatalf("expected slot 5 to stay absent")
	}
}
