package jsonobj

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKeepsOrder(t *testing.T) {
	o, err := Parse([]byte(`{"z":1,"a":"two","m":{"x":[1,2]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := o.Keys()
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}

	b, _ := json.Marshal(o)
	if string(b) != `{"z":1,"a":"two","m":{"x":[1,2]}}` {
		t.Fatalf("marshal = %s", b)
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[]`, `"x"`, `42`, `null`} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrNotObject) {
			t.Errorf("Parse(%s) err = %v, want ErrNotObject", in, err)
		}
	}
	if _, err := Parse([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("trailing object accepted")
	}
}

func TestDuplicateKeyKeepsFirstPosition(t *testing.T) {
	o, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := o.MarshalJSON()
	if string(b) != `{"a":3,"b":2}` {
		t.Fatalf("got %s", b)
	}
}

func TestQueryString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"user_id":"42"}`, "user_id=42"},
		{`{"user_id":42,"ref":"spring sale"}`, "user_id=42&ref=spring+sale"},
		{`{"a":null,"b":true}`, "b=true"},
		{`{"nested":{"k":"v"}}`, "nested=%7B%22k%22%3A%22v%22%7D"},
		{`{}`, ""},
		{`{"only":null}`, ""},
	}
	for _, c := range cases {
		o, err := Parse([]byte(c.in))
		if err != nil {
			t.Fatalf("Parse(%s): %v", c.in, err)
		}
		if got := o.QueryString(); got != c.want {
			t.Errorf("QueryString(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScanAndValue(t *testing.T) {
	var o Object
	if err := o.Scan([]byte(`{"package_name":"com.example.app"}`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if pkg, ok := o.String("package_name"); !ok || pkg != "com.example.app" {
		t.Fatalf("String = %q, %v", pkg, ok)
	}

	var empty Object
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	v, err := empty.Value()
	if err != nil {
		t.Fatal(err)
	}
	if string(v.([]byte)) != "{}" {
		t.Fatalf("Value = %s, want {}", v)
	}
}

func TestValueKeepsCallerOrder(t *testing.T) {
	const doc = `{"z":1,"a":{"y":true,"b":null},"m":"x"}`
	var o Object
	if err := o.Scan(doc); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	v, err := o.Value()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(v.([]byte)); got != doc {
		t.Fatalf("Value = %s, want %s", got, doc)
	}
}

func TestDecode(t *testing.T) {
	var o Object
	o.SetString("bundle_id", "com.example.ios")
	o.Set("tags", json.RawMessage(`["a","b"]`))

	var dst struct {
		BundleID string   `json:"bundle_id"`
		Tags     []string `json:"tags"`
	}
	if err := o.Decode(&dst); err != nil {
		t.Fatal(err)
	}
	if dst.BundleID != "com.example.ios" || len(dst.Tags) != 2 {
		t.Fatalf("decoded %+v", dst)
	}
}
