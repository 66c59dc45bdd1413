// internal/jsonobj/object.go
//
// Insertion-ordered JSON object.
//
// Context
// -------
// Deep-link `app_params` and App `platform_data` are free-form JSON maps
// supplied by API callers.  The redirect path turns `app_params` into a
// query string whose key order must follow the order the caller wrote,
// which a plain `map[string]any` cannot promise.  Object keeps the raw
// value bytes for every key together with the key order, so a document
// round-trips verbatim through text columns and API responses.  MySQL
// JSON columns keep the values but return keys in their own sorted
// order, so order-sensitive data is stored as LONGTEXT.
//
// Notes
// -----
//   - A repeated key keeps its first position and takes the last value.
//   - Only a top-level JSON object is accepted; arrays, scalars, and null
//     return ErrNotObject.
//   - Object implements sql.Scanner and driver.Valuer for JSON columns.
package jsonobj

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotObject is returned when the input is valid JSON but not an object.
var ErrNotObject = errors.New("jsonobj: value is not a JSON object")

// Object is an insertion-ordered map of JSON values.  The zero value is an
// empty object ready for use.
type Object struct {
	keys []string
	vals map[string]json.RawMessage
}

// New returns an empty Object.
func New() Object { return Object{} }

// Parse decodes b, which must hold a single JSON object.
func Parse(b []byte) (Object, error) {
	var o Object
	if err := o.UnmarshalJSON(b); err != nil {
		return Object{}, err
	}
	return o, nil
}

/*──────────────────────────── accessors ───────────────────────────────────*/

// Len reports the number of keys.
func (o Object) Len() int { return len(o.keys) }

// Keys returns a copy of the keys in insertion order.
func (o Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Raw returns the undecoded value stored under key.
func (o Object) Raw(key string) (json.RawMessage, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// String returns the value under key when it is a JSON string.
func (o Object) String(key string) (string, bool) {
	raw, ok := o.vals[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Set stores raw under key, appending the key when it is new.
func (o *Object) Set(key string, raw json.RawMessage) {
	if o.vals == nil {
		o.vals = make(map[string]json.RawMessage)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = append(json.RawMessage(nil), raw...)
}

// SetString is Set for a plain string value.
func (o *Object) SetString(key, val string) {
	b, _ := json.Marshal(val)
	o.Set(key, b)
}

// Decode unmarshals the whole object into v (usually a struct pointer).
func (o Object) Decode(v any) error {
	b, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

/*──────────────────────────── query string ────────────────────────────────*/

// QueryString renders the object as URL query parameters in insertion
// order.  Null values are skipped, strings are used verbatim, and every
// other value contributes its compact JSON text.  An empty result means
// the caller should omit the "?" entirely.
func (o Object) QueryString() string {
	var sb strings.Builder
	for _, k := range o.keys {
		raw := bytes.TrimSpace(o.vals[k])
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}

		var val string
		if raw[0] == '"' {
			if err := json.Unmarshal(raw, &val); err != nil {
				continue
			}
		} else {
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				continue
			}
			val = buf.String()
		}

		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(val))
	}
	return sb.String()
}

/*──────────────────────────── JSON codec ──────────────────────────────────*/

// UnmarshalJSON implements json.Unmarshaler.
func (o *Object) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	out := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("jsonobj: unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out.Set(key, raw)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	if dec.More() {
		return errors.New("jsonobj: trailing data after object")
	}

	*o = out
	return nil
}

// MarshalJSON implements json.Marshaler.  An empty Object encodes as {}.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(o.vals[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

/*──────────────────────────── SQL column ──────────────────────────────────*/

// Scan implements sql.Scanner for JSON columns.  NULL scans as {}.
func (o *Object) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = Object{}
		return nil
	case []byte:
		return o.UnmarshalJSON(v)
	case string:
		return o.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("jsonobj: cannot scan %T", src)
	}
}

// Value implements driver.Valuer.
func (o Object) Value() (driver.Value, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return b, nil
}
