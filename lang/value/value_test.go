package value

import "testing"

func TestValuePredicates(t *testing.T) {
	if !Null().IsNull() {
		t.Fatal("Null().IsNull() = false")
	}
	if !True().AsBool() || False().AsBool() {
		t.Fatal("bool boxing broken")
	}
	if !Num(3.5).IsNum() || Num(3.5).AsNum() != 3.5 {
		t.Fatal("num boxing broken")
	}
	if Null().IsUndefined() || !Undefined().IsUndefined() {
		t.Fatal("undefined distinct from null broken")
	}
}

func TestValueObjRoundTrip(t *testing.T) {
	h := NewHeap()
	s := NewString(h, []byte("hi"))
	v := ObjVal(h, s)
	if !v.IsObj() {
		t.Fatal("ObjVal not IsObj")
	}
	got, ok := v.AsObj(h).(*String)
	if !ok || string(got.Bytes) != "hi" {
		t.Fatalf("round trip failed: %+v", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:   "0",
		1.5: "1.5",
		10:  "10",
	}
	for f, want := range cases {
		if got := formatNumber(f); got != want {
			t.Errorf("formatNumber(%v) = %q, want %q", f, got, want)
		}
	}
}

func TestMapInvariant(t *testing.T) {
	h := NewHeap()
	m := NewMap(h)
	for i := 0; i < 50; i++ {
		m.Set(h, Num(float64(i)), Num(float64(i*i)))
	}
	for i := 0; i < 25; i++ {
		m.Delete(h, Num(float64(i)))
	}
	if m.Count() != 25 {
		t.Fatalf("Count() = %d, want 25", m.Count())
	}
	if len(m.Keys()) != m.Count() {
		t.Fatalf("Keys() len = %d, want %d", len(m.Keys()), m.Count())
	}
	for i := 25; i < 50; i++ {
		v, ok := m.Get(h, Num(float64(i)))
		if !ok || v.AsNum() != float64(i*i) {
			t.Fatalf("Get(%d) = %v, %v", i, v, ok)
		}
	}
}

func TestListShift(t *testing.T) {
	h := NewHeap()
	l := NewList(h, []Value{Num(1), Num(2), Num(3)})
	l.Insert(1, Num(99))
	v := l.RemoveAt(1)
	if v.AsNum() != 99 {
		t.Fatalf("RemoveAt = %v, want 99", v.AsNum())
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestCycleSafeToString(t *testing.T) {
	h := NewHeap()
	l := NewList(h, nil)
	l.Items = append(l.Items, ObjVal(h, l))
	s := ToString(h, ObjVal(h, l), false)
	if s != "[[...]]" {
		t.Fatalf("ToString = %q, want [[...]]", s)
	}
}

func TestRangeHashEquals(t *testing.T) {
	h := NewHeap()
	a := ObjVal(h, NewRange(h, 0, 3))
	b := ObjVal(h, NewRange(h, 0, 3))
	if !Equals(h, a, b) {
		t.Fatal("equal ranges compared unequal")
	}
	if Hash(h, a) != Hash(h, b) {
		t.Fatal("equal ranges hashed differently")
	}
}
