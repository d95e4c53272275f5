package catalog

import "testing"

func TestCustomersAllowlist(t *testing.T) {
	c := Customers()

	for _, name := range []string{"customer_id", "name", "email", "ip_addr", "phone", "modified_ts"} {
		if !c.Has(name) {
			t.Errorf("expected %q in allowlist", name)
		}
	}
	if c.Has("password") {
		t.Error("password must not be served")
	}
	if c.Has("Customer_ID") {
		t.Error("lookup must be case-sensitive")
	}

	col, ok := c.Lookup("customer_id")
	if !ok || col.Type != TypeBigint {
		t.Fatalf("customer_id lookup = %+v, %v", col, ok)
	}
	col, ok = c.Lookup("modified_ts")
	if !ok || col.Type != TypeTimestamp {
		t.Fatalf("modified_ts lookup = %+v, %v", col, ok)
	}
}

func TestCustomersDefaultSelect(t *testing.T) {
	got := Customers().DefaultSelect()
	want := []string{"customer_id", "name", "email"}
	if len(got) != len(want) {
		t.Fatalf("default projection = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("default projection = %v, want %v", got, want)
		}
	}

	// Returned slice is a copy; callers appending to it must not leak back.
	got[0] = "mutated"
	if Customers().DefaultSelect()[0] != "customer_id" {
		t.Error("DefaultSelect leaked internal state")
	}
}

func TestCustomersKeysetIsTotal(t *testing.T) {
	c := Customers()
	ks := c.Keyset()
	if len(ks) != 2 {
		t.Fatalf("keyset arity = %d, want 2", len(ks))
	}
	if ks[0].Column != "modified_ts" || !ks[0].Desc {
		t.Errorf("keyset[0] = %+v, want modified_ts DESC", ks[0])
	}
	if ks[1].Column != "customer_id" || !ks[1].Desc {
		t.Errorf("keyset[1] = %+v, want customer_id DESC", ks[1])
	}

	// The tie-breaker column is the unique key, so the ordering is total.
	last := ks[len(ks)-1]
	if last.Column != "customer_id" {
		t.Errorf("keyset must end on the unique column, got %q", last.Column)
	}
}

func TestNewRejectsBadDeclarations(t *testing.T) {
	cols := []Column{{Name: "a", Expr: "a", Type: TypeString}}

	mustPanic := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	mustPanic("duplicate column", func() {
		New(append(cols, Column{Name: "a", Expr: "a", Type: TypeString}), nil, nil)
	})
	mustPanic("unknown default", func() {
		New(cols, []string{"b"}, nil)
	})
	mustPanic("unknown keyset column", func() {
		New(cols, nil, []KeysetPart{{Column: "b", Desc: true}})
	})
}

func TestCastRequired(t *testing.T) {
	cases := []struct {
		typ  ScalarType
		want bool
	}{
		{TypeBigint, true},
		{TypeDouble, true},
		{TypeTimestamp, true},
		{TypeString, false},
	}
	for _, tc := range cases {
		if got := tc.typ.CastRequired(); got != tc.want {
			t.Errorf("CastRequired(%s) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}
