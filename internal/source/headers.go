package source

import (
	"fmt"
	"sort"
	"strings"
)

// HeaderPair is one key/value row of the request header form.
type HeaderPair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// HeaderPairs is the ordered list of header rows entered by the user.
type HeaderPairs []HeaderPair

// ParseHeaderPair parses "Key: Value" or "Key=Value".
func ParseHeaderPair(raw string) (HeaderPair, error) {
	idx := strings.IndexAny(raw, ":=")
	if idx <= 0 {
		return HeaderPair{}, fmt.Errorf("invalid header %q (expected \"Key: Value\" or \"Key=Value\")", raw)
	}
	return HeaderPair{
		Key:   strings.TrimSpace(raw[:idx]),
		Value: strings.TrimSpace(raw[idx+1:]),
	}, nil
}

// ParseHeaderPairs parses every entry with ParseHeaderPair.
func ParseHeaderPairs(raw []string) (HeaderPairs, error) {
	pairs := make(HeaderPairs, 0, len(raw))
	for _, r := range raw {
		p, err := ParseHeaderPair(r)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// Map builds the outbound header map. Pairs with an empty key or value are
// dropped; the rest are included verbatim and a later duplicate key wins.
func (h HeaderPairs) Map() map[string]string {
	out := make(map[string]string, len(h))
	for _, p := range h {
		if strings.TrimSpace(p.Key) == "" || p.Value == "" {
			continue
		}
		out[p.Key] = p.Value
	}
	return out
}

// Append returns a copy of h with pairs added at the end.
func (h HeaderPairs) Append(pairs ...HeaderPair) HeaderPairs {
	out := make(HeaderPairs, 0, len(h)+len(pairs))
	out = append(out, h...)
	return append(out, pairs...)
}

// FromMap converts a header map into pairs sorted by key.
func FromMap(m map[string]string) HeaderPairs {
	out := make(HeaderPairs, 0, len(m))
	for k, v := range m {
		out = append(out, HeaderPair{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
