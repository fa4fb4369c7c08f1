package contentstream

import (
	"bytes"
	"testing"

	"github.com/tsawler/folio/core"
)

func parse(t *testing.T, input string) []Operation {
	t.Helper()
	ops, err := NewParser([]byte(input)).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return ops
}

func operators(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Operator
	}
	return out
}

// TestParseSimpleOperator tests parsing a simple operator with no operands
func TestParseSimpleOperator(t *testing.T) {
	ops := parse(t, "q")
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	if ops[0].Operator != "q" {
		t.Errorf("expected operator 'q', got %q", ops[0].Operator)
	}
	if len(ops[0].Operands) != 0 {
		t.Errorf("expected 0 operands, got %d", len(ops[0].Operands))
	}
}

func TestParseOperandTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  core.Object
	}{
		{"integer", "100 Tz", core.Int(100)},
		{"real", "1.5 w", core.Real(1.5)},
		{"leading decimal", ".5 w", core.Real(0.5)},
		{"negative", "-3 Ts", core.Int(-3)},
		{"literal string", "(Hello) Tj", core.String("Hello")},
		{"escaped string", `(a\(b\)c) Tj`, core.String("a(b)c")},
		{"nested parens", "(a(b)c) Tj", core.String("a(b)c")},
		{"octal escape", `(\101) Tj`, core.String("A")},
		{"hex string", "<48656C6C6F> Tj", core.String("Hello")},
		{"odd hex string", "<414> Tj", core.String("A@")},
		{"name", "/GS1 gs", core.Name("GS1")},
		{"name hex escape", "/A#20B gs", core.Name("A B")},
		{"boolean", "true Tz", core.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := parse(t, tt.input)
			if len(ops) != 1 || len(ops[0].Operands) != 1 {
				t.Fatalf("got %+v", ops)
			}
			if ops[0].Operands[0] != tt.want {
				t.Errorf("operand = %#v, want %#v", ops[0].Operands[0], tt.want)
			}
		})
	}
}

// TestParseRealWorld tests a more realistic content stream
func TestParseRealWorld(t *testing.T) {
	ops := parse(t, `q 1 0 0 1 72 720 cm
BT
/F1 12 Tf
1 0 0 1 72 720 Tm
0 Tc
0 Tw
(The quick brown fox) Tj
0 -14 Td
[(jumps) -250 (over)] TJ
ET
0 0 100 50 re f
Q`)

	want := []string{"q", "cm", "BT", "Tf", "Tm", "Tc", "Tw", "Tj", "Td", "TJ", "ET", "re", "f", "Q"}
	got := operators(ops)
	if len(got) != len(want) {
		t.Fatalf("operators = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("operation %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	tj := ops[9].Operands[0].(core.Array)
	if len(tj) != 3 || tj[1] != core.Int(-250) {
		t.Errorf("TJ array = %v", tj)
	}
	if m, ok := ops[1].Numbers(); !ok || m[4] != 72 || m[5] != 720 {
		t.Errorf("cm numbers = %v, %v", m, ok)
	}
}

func TestParseDictOperand(t *testing.T) {
	ops := parse(t, "/OC <</MCID 3 /Lang (en)>> BDC EMC")
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	dict, ok := ops[0].Operands[1].(core.Dict)
	if !ok {
		t.Fatalf("expected Dict operand, got %T", ops[0].Operands[1])
	}
	if dict["MCID"] != core.Int(3) {
		t.Errorf("MCID = %v", dict["MCID"])
	}
	if name, _ := ops[0].Name(0); name != "OC" {
		t.Errorf("tag = %q", name)
	}
}

func TestParseWithComments(t *testing.T) {
	ops := parse(t, "BT % begin text\n/F1 12 Tf\n(Hi) Tj % show\nET")
	if got := operators(ops); len(got) != 4 || got[3] != "ET" {
		t.Errorf("operators = %v", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		if ops := parse(t, input); len(ops) != 0 {
			t.Errorf("Parse(%q) = %d ops", input, len(ops))
		}
	}
}

func TestParseTrailingOperandsDropped(t *testing.T) {
	ops := parse(t, "q 1 2 3")
	if len(ops) != 1 || ops[0].Operator != "q" {
		t.Errorf("got %+v", ops)
	}
}

func TestParseInlineImage(t *testing.T) {
	data := []byte{0x00, 0xFF, ' ', 'E', 0x10, 0x20}
	var input bytes.Buffer
	input.WriteString("q BI /W 3 /H 2 /CS /G /BPC 8 /F [/AHx /Fl] /D [1 0]\nID ")
	input.Write(data)
	input.WriteString("\nEI Q")

	ops, err := NewParser(input.Bytes()).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := operators(ops); len(got) != 3 || got[1] != "BI" || got[2] != "Q" {
		t.Fatalf("operators = %v", got)
	}

	img := ops[1].Image
	if img == nil {
		t.Fatal("BI operation without image")
	}
	if !bytes.Equal(img.Data, data) {
		t.Errorf("data = %v, want %v", img.Data, data)
	}
	checks := map[string]core.Object{
		"Width":            core.Int(3),
		"Height":           core.Int(2),
		"ColorSpace":       core.Name("DeviceGray"),
		"BitsPerComponent": core.Int(8),
	}
	for key, want := range checks {
		if img.Dict[key] != want {
			t.Errorf("%s = %v, want %v", key, img.Dict[key], want)
		}
	}
	filters := img.Dict["Filter"].(core.Array)
	if filters[0] != core.Name("ASCIIHexDecode") || filters[1] != core.Name("FlateDecode") {
		t.Errorf("Filter = %v", filters)
	}
	if _, ok := img.Dict["Decode"].(core.Array); !ok {
		t.Errorf("Decode = %v", img.Dict["Decode"])
	}
}

func TestParseInlineImageIndexedColorSpace(t *testing.T) {
	ops := parse(t, "BI /W 1 /H 1 /CS [/I /RGB 1 <FF000000FF00>] /BPC 1 ID \x80\nEI")
	cs := ops[0].Image.Dict["ColorSpace"].(core.Array)
	if cs[0] != core.Name("Indexed") || cs[1] != core.Name("DeviceRGB") {
		t.Errorf("ColorSpace = %v", cs)
	}
}

func TestParseInlineImageWithoutEI(t *testing.T) {
	ops, err := NewParser([]byte("q BI /W 1 /H 1 ID abc")).Parse()
	if err == nil {
		t.Fatal("expected error for unterminated inline image")
	}
	if len(ops) != 1 || ops[0].Operator != "q" {
		t.Errorf("expected operations before the error, got %+v", ops)
	}
}

func TestParseSyntaxErrorKeepsPrefix(t *testing.T) {
	ops, err := NewParser([]byte("q 1 0 0 1 0 0 cm (unterminated Tj")).Parse()
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if got := operators(ops); len(got) != 2 || got[1] != "cm" {
		t.Errorf("operators = %v", got)
	}
}

func TestOperationHelpers(t *testing.T) {
	op := Operation{Operator: "rg", Operands: []core.Object{core.Real(0.5), core.Int(1), core.Name("X")}}
	if v, ok := op.Number(0); !ok || v != 0.5 {
		t.Errorf("Number(0) = %v, %v", v, ok)
	}
	if _, ok := op.Number(2); ok {
		t.Error("Number(2) should fail on a name")
	}
	if _, ok := op.Number(5); ok {
		t.Error("Number(5) should fail out of range")
	}
	if _, ok := op.Numbers(); ok {
		t.Error("Numbers should fail with a name operand")
	}
	if n, ok := op.Name(2); !ok || n != "X" {
		t.Errorf("Name(2) = %q, %v", n, ok)
	}
}
