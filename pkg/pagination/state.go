package pagination

// State tracks the page a caller is looking at.
type State struct {
	initial Params
	current Params
}

// NewState creates a pager starting at initial.
func NewState(initial Params) *State {
	initial = initial.Normalize()
	return &State{initial: initial, current: initial}
}

// Params returns the current page selection.
func (s *State) Params() Params {
	return s.current
}

// Advance moves to the page advertised by desc's next relation. It returns
// false and leaves the state unchanged when there is no next page.
func (s *State) Advance(desc Descriptor) bool {
	page, ok := desc.NextPage()
	if !ok {
		return false
	}
	s.current.Page = page
	return true
}

// Prev moves one page back, never below the first page.
func (s *State) Prev() {
	s.GoTo(s.current.Page - 1)
}

// GoTo jumps to page, clamped to the first page.
func (s *State) GoTo(page int) {
	if page < 1 {
		page = 1
	}
	s.current.Page = page
}

// SetPerPage changes the page size and returns to the first page.
func (s *State) SetPerPage(perPage int) {
	s.current = Params{Page: 1, PerPage: perPage}.Normalize()
}

// Reset restores the initial selection.
func (s *State) Reset() {
	s.current = s.initial
}
