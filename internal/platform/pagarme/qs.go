package pagarme

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fatflowers/postback/pkg/apperr"
)

// qs caps array indices at 20; larger indices stay object keys.
const arrayLimit = 20

// Pair is one flattened key/value. Keys are bracket paths such as
// transaction[customer][name].
type Pair struct {
	Key   string
	Value string
}

// Values is a canonical, ordered flattening of a postback payload. It is
// produced by ParseForm and ParseJSON, never built by hand.
type Values []Pair

// Get returns the first value stored under key.
func (v Values) Get(key string) string {
	for _, p := range v {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Encode serializes the pairs the way the gateway signs them: key=value
// joined by "&", every byte outside A-Za-z0-9-._~ percent-encoded.
func (v Values) Encode() string {
	var b strings.Builder
	for i, p := range v {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(p.Key))
		b.WriteByte('=')
		b.WriteString(escape(p.Value))
	}
	return b.String()
}

func escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// ParseForm parses an application/x-www-form-urlencoded body into canonical
// Values, nesting bracket keys the way the gateway's encoder expects.
func ParseForm(body []byte) (Values, error) {
	root := &qsNode{object: true}
	for _, part := range strings.Split(string(body), "&") {
		if part == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, apperr.Protocol("form key %q: %v", rawKey, err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, apperr.Protocol("form value for %q: %v", key, err)
		}
		if key == "" {
			continue
		}
		root.insert(splitKey(key), val)
	}
	return root.flatten("", nil), nil
}

// ParseJSON flattens a JSON object body into canonical Values, keeping
// document order.
func ParseJSON(body []byte) (Values, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, apperr.Protocol("json body: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, apperr.Protocol("json body must be an object")
	}
	root := &qsNode{object: true}
	if err := decodeObject(dec, root); err != nil {
		return nil, apperr.Protocol("json body: %v", err)
	}
	return root.flatten("", nil), nil
}

type qsNode struct {
	value *string
	keys  []string
	kids  map[string]*qsNode
	// array and object are known for JSON input; form input infers arrays
	// from numeric keys.
	array  bool
	object bool
}

func (n *qsNode) child(key string) *qsNode {
	if n.kids == nil {
		n.kids = make(map[string]*qsNode)
	}
	c, ok := n.kids[key]
	if !ok {
		c = &qsNode{}
		n.kids[key] = c
		n.keys = append(n.keys, key)
	}
	return c
}

func (n *qsNode) insert(segs []string, val string) {
	cur := n
	for _, s := range segs {
		if s == "" {
			s = strconv.Itoa(len(cur.keys))
		}
		cur = cur.child(s)
	}
	cur.set(val)
}

// set stores a form value; a repeated key turns into an array.
func (n *qsNode) set(val string) {
	switch {
	case n.value == nil && len(n.keys) == 0:
		n.value = &val
	case n.value != nil:
		prev := *n.value
		n.value = nil
		n.child("0").value = &prev
		n.child("1").value = &val
	default:
		n.child(strconv.Itoa(len(n.keys))).value = &val
	}
}

func (n *qsNode) flatten(prefix string, out Values) Values {
	if len(n.keys) == 0 {
		if n.value != nil {
			out = append(out, Pair{Key: prefix, Value: *n.value})
		}
		return out
	}
	keys, array := n.keys, n.array
	if !n.array && !n.object {
		if sorted, ok := numericKeys(n.keys); ok {
			keys, array = sorted, true
		}
	}
	for i, k := range keys {
		label := k
		if array {
			label = strconv.Itoa(i)
		}
		path := label
		if prefix != "" {
			path = prefix + "[" + label + "]"
		}
		out = n.kids[k].flatten(path, out)
	}
	return out
}

func numericKeys(keys []string) ([]string, bool) {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i > arrayLimit || strconv.Itoa(i) != k {
			return nil, false
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	sorted := make([]string, len(idx))
	for i, v := range idx {
		sorted[i] = strconv.Itoa(v)
	}
	return sorted, true
}

// splitKey splits "a[b][c]" into a, b, c. Malformed keys stay whole.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}
	segs := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs
}

func decodeObject(dec *json.Decoder, n *qsNode) error {
	n.object = true
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if err := decodeValue(dec, n.child(key)); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

func decodeArray(dec *json.Decoder, n *qsNode) error {
	n.array = true
	for i := 0; dec.More(); i++ {
		if err := decodeValue(dec, n.child(strconv.Itoa(i))); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

func decodeValue(dec *json.Decoder, n *qsNode) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	var s string
	switch t := tok.(type) {
	case json.Delim:
		if t == '{' {
			return decodeObject(dec, n)
		}
		return decodeArray(dec, n)
	case string:
		s = t
	case json.Number:
		s = jsNumber(t)
	case bool:
		s = strconv.FormatBool(t)
	case nil:
		s = ""
	}
	n.value = &s
	return nil
}

// jsNumber renders a JSON number the way a JavaScript runtime prints it.
func jsNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
