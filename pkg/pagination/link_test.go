package pagination

import (
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		page    int
		perPage int
		want    Descriptor
	}{
		{
			name:    "no header is a single page",
			header:  "",
			page:    3,
			perPage: 25,
			want:    Descriptor{Page: 3, PerPage: 25},
		},
		{
			name:    "next and last",
			header:  `<https://x/?page=2&per_page=30>; rel="next", <https://x/?page=5>; rel="last"`,
			page:    1,
			perPage: 30,
			want: Descriptor{
				Next:       "https://x/?page=2&per_page=30",
				Last:       "https://x/?page=5",
				Page:       1,
				PerPage:    30,
				TotalPages: intPtr(5),
			},
		},
		{
			name: "all four relations",
			header: `<https://api.github.com/gists/public?page=1>; rel="first", ` +
				`<https://api.github.com/gists/public?page=3>; rel="prev", ` +
				`<https://api.github.com/gists/public?page=5>; rel="next", ` +
				`<https://api.github.com/gists/public?page=9>; rel="last"`,
			page:    4,
			perPage: 10,
			want: Descriptor{
				First:      "https://api.github.com/gists/public?page=1",
				Prev:       "https://api.github.com/gists/public?page=3",
				Next:       "https://api.github.com/gists/public?page=5",
				Last:       "https://api.github.com/gists/public?page=9",
				Page:       4,
				PerPage:    10,
				TotalPages: intPtr(9),
			},
		},
		{
			name:    "malformed entries are skipped",
			header:  `https://x/?page=7; rel="first", <https://x/?page=2>, <https://x/?page=2>; rel="next"`,
			page:    1,
			perPage: 10,
			want: Descriptor{
				Next:    "https://x/?page=2",
				Page:    1,
				PerPage: 10,
			},
		},
		{
			name: "entries with surrounding junk are skipped",
			header: `<<https://x/?page=3>; rel="next", ` +
				`junk <https://y/?page=4>; rel="next", ` +
				`<https://x/?page=3>; rel="next"garbage, ` +
				`<%zz>; rel="last", <not a url>; rel="first"`,
			page:    1,
			perPage: 10,
			want:    Descriptor{Page: 1, PerPage: 10},
		},
		{
			name:    "unknown relation is ignored",
			header:  `<https://x/?page=2>; rel="self", <https://x/?page=4>; rel="last"`,
			page:    1,
			perPage: 10,
			want: Descriptor{
				Last:       "https://x/?page=4",
				Page:       1,
				PerPage:    10,
				TotalPages: intPtr(4),
			},
		},
		{
			name:    "last without numeric page leaves total unknown",
			header:  `<https://x/?page=abc>; rel="last"`,
			page:    2,
			perPage: 10,
			want: Descriptor{
				Last:    "https://x/?page=abc",
				Page:    2,
				PerPage: 10,
			},
		},
		{
			name:    "request values win over link values",
			header:  `<https://x/?page=3&per_page=100>; rel="next"`,
			page:    2,
			perPage: 15,
			want: Descriptor{
				Next:    "https://x/?page=3&per_page=100",
				Page:    2,
				PerPage: 15,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.header, tt.page, tt.perPage)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestResolve_Determinism ensures the same header always produces the same descriptor
func TestResolve_Determinism(t *testing.T) {
	header := `<https://x/?page=2>; rel="next", <https://x/?page=8>; rel="last", garbage`

	first := Resolve(header, 1, 30)
	for i := 0; i < 10; i++ {
		if got := Resolve(header, 1, 30); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: %+v != %+v", i, got, first)
		}
	}
}

func TestPageFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   int
		wantOK bool
	}{
		{"https://api.github.com/gists?page=4&per_page=10", 4, true},
		{"https://api.github.com/gists?per_page=10", 0, false},
		{"https://api.github.com/gists?page=0", 0, false},
		{"https://api.github.com/gists?page=x", 0, false},
		{"", 0, false},
		{"://bad", 0, false},
	}

	for _, tt := range tests {
		got, ok := PageFromURL(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("PageFromURL(%q) = (%d, %v), want (%d, %v)", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDescriptor_NextPageUsesRelation(t *testing.T) {
	// The server skipped from page 1 to page 3.
	desc := Resolve(`<https://x/?page=3>; rel="next", <https://x/?page=1>; rel="prev"`, 1, 10)

	next, ok := desc.NextPage()
	if !ok || next != 3 {
		t.Errorf("NextPage() = (%d, %v), want (3, true)", next, ok)
	}
	prev, ok := desc.PrevPage()
	if !ok || prev != 1 {
		t.Errorf("PrevPage() = (%d, %v), want (1, true)", prev, ok)
	}
	if _, ok := desc.Total(); ok {
		t.Error("Total() should be unknown without a last relation")
	}
}
