package lexer

import (
	"testing"

	"github.com/pocketlang/pocketlang/lang/token"
)

type tokenCase struct {
	typ token.Type
	lit string
}

func runTokenize(t *testing.T, src string, want []tokenCase) {
	t.Helper()
	l := New("test", src)
	for i, w := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Type != w.typ {
			t.Fatalf("token %d: type = %v, want %v (lit %q)", i, tok.Type, w.typ, tok.Literal)
		}
		if w.lit != "" && tok.Literal != w.lit {
			t.Fatalf("token %d: literal = %q, want %q", i, tok.Literal, w.lit)
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	runTokenize(t, "def main end", []tokenCase{
		{token.DEF, "def"},
		{token.IDENT, "main"},
		{token.END, "end"},
		{token.EOF, ""},
	})
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src string
		typ token.Type
	}{
		{"42", token.INT},
		{"3.14", token.FLOAT},
		{"1e3", token.FLOAT},
		{"0x1F", token.INT},
		{"0b1010", token.INT},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			runTokenize(t, c.src, []tokenCase{{c.typ, ""}})
		})
	}
}

func TestOperators(t *testing.T) {
	runTokenize(t, "+= -> <<= ..", []tokenCase{
		{token.PLUSEQ, "+="},
		{token.ARROW, "->"},
		{token.LTLTEQ, "<<="},
		{token.DOTDOT, ".."},
		{token.EOF, ""},
	})
}

func TestCommentAndNewline(t *testing.T) {
	runTokenize(t, "x = 1 # a comment\ny", []tokenCase{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, ""},
		{token.IDENT, "y"},
		{token.EOF, ""},
	})
}

func TestStringInterpolation(t *testing.T) {
	l := New("test", `'hello $(name)'`)
	// Note: $( is not the interpolation form; only $name and ${expr} are.
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.STRING {
		t.Fatalf("type = %v, want STRING", tok.Type)
	}
}

func TestStringSimpleInterpolation(t *testing.T) {
	l := New("test", `'hello ${2+3}'`)
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.STRING {
		t.Fatalf("type = %v, want STRING", tok.Type)
	}
	if len(l.Interps) != 2 {
		t.Fatalf("Interps = %v, want 2 pieces", l.Interps)
	}
	if l.Interps[0].Literal != "hello " || l.Interps[0].Expr != "2+3" {
		t.Fatalf("first interp piece = %+v", l.Interps[0])
	}
}

func TestEscapes(t *testing.T) {
	l := New("test", `"a\nb\t\"c\""`)
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\t\"c\""
	if tok.Literal != want {
		t.Fatalf("literal = %q, want %q", tok.Literal, want)
	}
}
