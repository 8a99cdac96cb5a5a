package pagination

import "testing"

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, PerPage: 10}},
		{Params{Page: -2, PerPage: 500}, Params{Page: 1, PerPage: 100}},
		{Params{Page: 4, PerPage: 30}, Params{Page: 4, PerPage: 30}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParams_Values(t *testing.T) {
	v := Params{Page: 2, PerPage: 30}.Values()
	if v.Get("page") != "2" || v.Get("per_page") != "30" {
		t.Errorf("Values() = %v", v)
	}
}

func TestState(t *testing.T) {
	s := NewState(Params{Page: 1, PerPage: 20})

	desc := Resolve(`<https://x/?page=4>; rel="next"`, 1, 20)
	if !s.Advance(desc) {
		t.Fatal("Advance should follow the next relation")
	}
	if s.Params().Page != 4 {
		t.Errorf("page after Advance = %d, want 4", s.Params().Page)
	}

	if s.Advance(Resolve("", 4, 20)) {
		t.Error("Advance without next relation should report false")
	}
	if s.Params().Page != 4 {
		t.Errorf("page changed without next relation: %d", s.Params().Page)
	}

	s.Prev()
	if s.Params().Page != 3 {
		t.Errorf("page after Prev = %d, want 3", s.Params().Page)
	}

	s.GoTo(-5)
	if s.Params().Page != 1 {
		t.Errorf("GoTo(-5) = %d, want 1", s.Params().Page)
	}
	s.Prev()
	if s.Params().Page != 1 {
		t.Errorf("Prev on first page = %d, want 1", s.Params().Page)
	}

	s.GoTo(6)
	s.SetPerPage(50)
	if got := s.Params(); got.Page != 1 || got.PerPage != 50 {
		t.Errorf("SetPerPage = %+v, want page 1 per_page 50", got)
	}

	s.Reset()
	if got := s.Params(); got.Page != 1 || got.PerPage != 20 {
		t.Errorf("Reset = %+v, want initial", got)
	}
}
