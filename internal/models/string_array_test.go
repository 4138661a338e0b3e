package models

import "testing"

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"minor_news", "into_crypto_en"}.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != `["minor_news","into_crypto_en"]` {
		t.Fatalf("value = %v", v)
	}

	v, err = StringArray(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil value = %v, err = %v", v, err)
	}
}

func TestStringArrayScan(t *testing.T) {
	cases := []struct {
		in   interface{}
		want []string
	}{
		{`["a","b"]`, []string{"a", "b"}},
		{[]byte(`["a"]`), []string{"a"}},
		{`"legacy"`, []string{"legacy"}},
		{"plain", []string{"plain"}},
		{"", []string{}},
		{"null", []string{}},
		{nil, []string{}},
	}
	for _, tc := range cases {
		var a StringArray
		if err := a.Scan(tc.in); err != nil {
			t.Fatalf("Scan(%v): %v", tc.in, err)
		}
		if len(a) != len(tc.want) {
			t.Fatalf("Scan(%v) = %v, want %v", tc.in, a, tc.want)
		}
		for i := range a {
			if a[i] != tc.want[i] {
				t.Fatalf("Scan(%v) = %v, want %v", tc.in, a, tc.want)
			}
		}
	}

	var a StringArray
	if err := a.Scan(42); err == nil {
		t.Fatal("unsupported type must error")
	}
}

func TestStringArrayContains(t *testing.T) {
	a := StringArray{"minor_news"}
	if !a.Contains("minor_news") {
		t.Fatal("expected membership")
	}
	if a.Contains("into_crypto_en") || StringArray(nil).Contains("x") {
		t.Fatal("unexpected membership")
	}
}
