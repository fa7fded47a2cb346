package kif

// PromotionTracker remembers which squares hold a promoted piece and the
// code that piece was recorded with when it promoted. A square is present
// exactly while the last piece to land there is promoted.
type PromotionTracker struct {
	squares map[string]string
}

func NewPromotionTracker() *PromotionTracker {
	return &PromotionTracker{squares: make(map[string]string)}
}

func (p *PromotionTracker) Lookup(square string) (string, bool) {
	code, ok := p.squares[square]
	return code, ok
}

func (p *PromotionTracker) Mark(square, code string) {
	p.squares[square] = code
}

func (p *PromotionTracker) Clear(square string) {
	delete(p.squares, square)
}

// Relocate moves the marker that was on from to to.
func (p *PromotionTracker) Relocate(from, to, code string) {
	delete(p.squares, from)
	p.squares[to] = code
}

func (p *PromotionTracker) Len() int {
	return len(p.squares)
}

// resolve applies the tracker rules to one move and returns the name the
// piece should render with. name is the plain table name for code.
func (p *PromotionTracker) resolve(lex *Lexicon, from, to, code, name string) (string, bool) {
	if !containsPromotionMarker(name) {
		p.Clear(to)
		return name, true
	}
	original, ok := p.Lookup(from)
	if !ok {
		p.Mark(to, code)
		return name, true
	}
	p.Relocate(from, to, original)
	promoted, ok := lex.Promoted(code)
	return promoted, ok
}
