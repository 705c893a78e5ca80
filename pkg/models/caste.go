package models

import "strings"

// Caste is the privilege tier of a worker. It decides which workers may
// address which.
type Caste string

const (
	CasteQueen   Caste = "queen"
	CasteMajor   Caste = "major"
	CasteMinor   Caste = "minor"
	CasteScribe  Caste = "scribe"
	CasteSoldier Caste = "soldier"
	CasteLarva   Caste = "larva"
)

// DefaultCaste is assigned to workers that do not declare one.
const DefaultCaste = CasteMinor

// AllCastes lists every caste in rank order.
var AllCastes = []Caste{CasteQueen, CasteMajor, CasteMinor, CasteScribe, CasteSoldier, CasteLarva}

// Valid returns true if the caste is a known value.
func (c Caste) Valid() bool {
	switch c {
	case CasteQueen, CasteMajor, CasteMinor, CasteScribe, CasteSoldier, CasteLarva:
		return true
	default:
		return false
	}
}

// ParseCaste normalizes s and reports whether it names a known caste.
func ParseCaste(s string) (Caste, bool) {
	c := Caste(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// extraRecipients lists the directed pairs allowed beyond the
// queen-to-anyone and same-caste rules.
var extraRecipients = map[Caste][]Caste{
	CasteMajor: {CasteMinor},
}

// CanCommunicate reports whether sender may address receiver.
// Queens address anyone, equal castes address each other, majors address
// minors. Every other directed pair is denied.
func CanCommunicate(sender, receiver Caste) bool {
	if sender == CasteQueen || sender == receiver {
		return true
	}
	for _, c := range extraRecipients[sender] {
		if c == receiver {
			return true
		}
	}
	return false
}

// CasteTraits is behavior metadata attached to a caste.
type CasteTraits struct {
	// Autonomy is a 1-10 scale of how much a worker decides on its own.
	Autonomy int
	// Context is the scope of information the worker operates on.
	Context string
	// Memory reports whether the worker keeps a conversation log.
	Memory bool
}

var casteTraits = map[Caste]CasteTraits{
	CasteQueen:   {Autonomy: 10, Context: "global", Memory: true},
	CasteMajor:   {Autonomy: 7, Context: "domain", Memory: true},
	CasteMinor:   {Autonomy: 3, Context: "local", Memory: true},
	CasteScribe:  {Autonomy: 1, Context: "result", Memory: false},
	CasteSoldier: {Autonomy: 5, Context: "audit", Memory: true},
	CasteLarva:   {Autonomy: 2, Context: "ephemeral", Memory: false},
}

// Traits returns the metadata for c. Unknown castes get the larva traits.
func Traits(c Caste) CasteTraits {
	if t, ok := casteTraits[c]; ok {
		return t
	}
	return casteTraits[CasteLarva]
}
