package bytecode

import (
	"bytes"
	"testing"
)

func TestOperandWidths(t *testing.T) {
	cases := map[Op]int{
		PUSH_CONSTANT: 2,
		PUSH_LOCAL_N:  1,
		PUSH_NULL:     0,
		JUMP:          2,
		CALL:          1,
	}
	for op, want := range cases {
		if got := op.OperandWidth(); got != want {
			t.Errorf("%s.OperandWidth() = %d, want %d", op, got, want)
		}
	}
}

func TestStringerKnowsEveryOp(t *testing.T) {
	for op := Op(0); op < opCount; op++ {
		if op.String() == "" {
			t.Errorf("op %d has no name", op)
		}
	}
}

func TestDisassembleRuns(t *testing.T) {
	code := []byte{byte(PUSH_0), byte(PUSH_1), byte(ADD), byte(RETURN)}
	var buf bytes.Buffer
	Disassemble(&buf, "main", code)
	if buf.Len() == 0 {
		t.Fatal("Disassemble produced no output")
	}
}
