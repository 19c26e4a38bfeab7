package source

import (
	"reflect"
	"testing"
)

func TestHeaderPairs_MapDropsIncompletePairs(t *testing.T) {
	pairs := HeaderPairs{
		{Key: "X-Api-Key", Value: "secret"},
		{Key: "", Value: "orphan"},
		{Key: "Empty", Value: ""},
		{Key: "  ", Value: "blank key"},
		{Key: "Accept-Language", Value: " de "},
	}

	want := map[string]string{
		"X-Api-Key":       "secret",
		"Accept-Language": " de ",
	}
	if got := pairs.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestHeaderPairs_MapLaterDuplicateWins(t *testing.T) {
	pairs := HeaderPairs{{Key: "K", Value: "1"}, {Key: "K", Value: "2"}}
	if got := pairs.Map()["K"]; got != "2" {
		t.Errorf("K = %q, want 2", got)
	}
}

func TestParseHeaderPair(t *testing.T) {
	tests := []struct {
		in      string
		want    HeaderPair
		wantErr bool
	}{
		{in: "X-Api-Key: abc", want: HeaderPair{Key: "X-Api-Key", Value: "abc"}},
		{in: "X-Api-Key=abc", want: HeaderPair{Key: "X-Api-Key", Value: "abc"}},
		{in: "Authorization: Bearer a:b", want: HeaderPair{Key: "Authorization", Value: "Bearer a:b"}},
		{in: "Empty:", want: HeaderPair{Key: "Empty", Value: ""}},
		{in: "no-separator", wantErr: true},
		{in: ":value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHeaderPair(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeaderPair() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseHeaderPairs(t *testing.T) {
	got, err := ParseHeaderPairs([]string{"A: 1", "B=2"})
	if err != nil {
		t.Fatal(err)
	}
	want := HeaderPairs{{Key: "A", Value: "1"}, {Key: "B", Value: "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if _, err := ParseHeaderPairs([]string{"A: 1", "broken"}); err == nil {
		t.Error("expected error for malformed entry")
	}
}

func TestHeaderPairs_AppendCopies(t *testing.T) {
	base := make(HeaderPairs, 1, 4)
	base[0] = HeaderPair{Key: "A", Value: "1"}

	first := base.Append(HeaderPair{Key: "B", Value: "2"})
	second := base.Append(HeaderPair{Key: "C", Value: "3"})

	if first[1].Key != "B" || second[1].Key != "C" {
		t.Errorf("Append shares backing array: %+v %+v", first, second)
	}
	if len(base) != 1 {
		t.Error("Append must not grow the receiver")
	}
}

func TestFromMap(t *testing.T) {
	got := FromMap(map[string]string{"b": "2", "a": "1"})
	want := HeaderPairs{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromMap() = %+v, want %+v", got, want)
	}
}
