package buffer

import "testing"

func TestRoundTripScalars(t *testing.T) {
	b := New()
	b.PutU32(TagCriticalPath, 42)
	b.PutF64(TagDelay, 3.25)

	data := b.Bytes()
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	u, err := out.GetU32()
	if err != nil || u != 42 {
		t.Fatalf("GetU32 = %d, %v; want 42, nil", u, err)
	}
	f, err := out.GetF64()
	if err != nil || f != 3.25 {
		t.Fatalf("GetF64 = %v, %v; want 3.25, nil", f, err)
	}
}

func TestRoundTripTimemap(t *testing.T) {
	tm := NewTimeMap()
	tm.Add(1, 2.5)
	tm.Add(2, 4.0)
	tm.Add(5, 0.125)

	b := New()
	b.PutTimemap(TagPropWait, tm)

	out, err := Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := out.GetTimemap()
	if err != nil {
		t.Fatalf("GetTimemap: %v", err)
	}
	if len(got) != len(tm) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(tm))
	}
	for k, v := range tm {
		if got[k] != v {
			t.Errorf("got[%d] = %v, want %v", k, got[k], v)
		}
	}
}

func TestTypeMismatchIsFatal(t *testing.T) {
	b := New()
	b.PutU32(TagDelay, 7)
	out, _ := Parse(b.Bytes())

	if _, err := out.GetF64(); err == nil {
		t.Fatal("expected type-mismatch error reading u32 section as f64")
	}
}

func TestTimeMapSub(t *testing.T) {
	a := NewTimeMap()
	a.Add(1, 10)
	a.Add(2, 5)
	w := NewTimeMap()
	w.Add(1, 3)

	d := a.Sub(w)
	if d[1] != 7 {
		t.Errorf("d[1] = %v, want 7", d[1])
	}
	if d[2] != 5 {
		t.Errorf("d[2] = %v, want 5", d[2])
	}
}
