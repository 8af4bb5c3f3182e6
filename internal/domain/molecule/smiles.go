package molecule

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
)

// Bond orders stored under the "order" edge attribute.
const (
	BondSingle   = 1.0
	BondDouble   = 2.0
	BondTriple   = 3.0
	BondQuad     = 4.0
	BondAromatic = 1.5
)

// Node attributes written by ParseSMILES besides the element label.
const (
	AttrAromatic = "aromatic"
	AttrCharge   = "charge"
	AttrHCount   = "hcount"
	AttrIsotope  = "isotope"
	AttrOrder    = "order"
)

// organicSubset lists the symbols allowed outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

var aromaticOrganic = map[rune]bool{'b': true, 'c': true, 'n': true, 'o': true, 'p': true, 's': true}

type ringBond struct {
	atom     int
	order    float64
	explicit bool
}

// smilesReader holds the state of one ParseSMILES call.
type smilesReader struct {
	src      string
	runes    []rune
	pos      int
	labelKey string

	g        *Graph
	aromatic []bool
	prev     int
	branches []int
	rings    map[int]ringBond
	bond     float64
	bondSet  bool
}

// ParseSMILES reads a SMILES string into a Graph with one node per written
// atom. Implicit hydrogens are not added: only atoms present in the string
// become nodes. Node keys are 0..n-1 in reading order and each node carries
// its element symbol under labelKey.
func ParseSMILES(smiles, labelKey string) (*Graph, error) {
	if labelKey == "" {
		labelKey = DefaultLabelKey
	}
	s := strings.TrimSpace(smiles)
	r := &smilesReader{
		src:      s,
		runes:    []rune(s),
		labelKey: labelKey,
		g:        NewGraph(),
		prev:     -1,
		rings:    make(map[int]ringBond),
	}
	if err := r.read(); err != nil {
		return nil, err
	}
	return r.g, nil
}

func (r *smilesReader) fail(reason string) error {
	return &SMILESError{SMILES: r.src, Position: r.pos, Reason: reason}
}

func (r *smilesReader) read() error {
	if len(r.runes) == 0 {
		return r.fail("empty string")
	}
	for r.pos < len(r.runes) {
		ch := r.runes[r.pos]
		switch {
		case ch == '(':
			if r.prev < 0 {
				return r.fail("branch without a preceding atom")
			}
			r.branches = append(r.branches, r.prev)
			r.pos++
		case ch == ')':
			if len(r.branches) == 0 {
				return r.fail("unbalanced ')'")
			}
			if r.bondSet {
				return r.fail("bond symbol before ')'")
			}
			r.prev = r.branches[len(r.branches)-1]
			r.branches = r.branches[:len(r.branches)-1]
			r.pos++
		case ch == '-', ch == '/', ch == '\\':
			r.setBond(BondSingle)
		case ch == '=':
			r.setBond(BondDouble)
		case ch == '#':
			r.setBond(BondTriple)
		case ch == '$':
			r.setBond(BondQuad)
		case ch == ':':
			r.setBond(BondAromatic)
		case ch == '.':
			if r.bondSet {
				return r.fail("bond symbol before '.'")
			}
			r.prev = -1
			r.pos++
		case ch == '[':
			if err := r.readBracketAtom(); err != nil {
				return err
			}
		case ch == '%' || isDigit(ch):
			if err := r.readRingClosure(); err != nil {
				return err
			}
		case unicode.IsLetter(ch):
			if err := r.readOrganicAtom(); err != nil {
				return err
			}
		default:
			return r.fail("unexpected character " + strconv.QuoteRune(ch))
		}
	}

	switch {
	case len(r.branches) > 0:
		return r.fail("unclosed branch")
	case len(r.rings) > 0:
		return r.fail("unclosed ring bond")
	case r.bondSet:
		return r.fail("dangling bond symbol")
	case r.g.NumNodes() == 0:
		return r.fail("no atoms")
	}
	return nil
}

func (r *smilesReader) setBond(order float64) {
	r.bond = order
	r.bondSet = true
	r.pos++
}

// addAtom appends a node and bonds it to the previous atom.
func (r *smilesReader) addAtom(attrs Attrs, aromatic bool) {
	idx := r.g.NumNodes()
	r.g.AddNode(IntKey(idx), attrs)
	r.aromatic = append(r.aromatic, aromatic)
	if r.prev >= 0 {
		r.g.AddEdge(IntKey(r.prev), IntKey(idx), Attrs{AttrOrder: r.bondOrder(r.prev, idx, r.bond, r.bondSet)})
	}
	r.prev = idx
	r.bond, r.bondSet = 0, false
}

func (r *smilesReader) bondOrder(a, b int, order float64, explicit bool) float64 {
	if explicit {
		return order
	}
	if r.aromatic[a] && r.aromatic[b] {
		return BondAromatic
	}
	return BondSingle
}

func (r *smilesReader) readOrganicAtom() error {
	ch := r.runes[r.pos]
	if aromaticOrganic[ch] {
		r.pos++
		r.addAtom(Attrs{r.labelKey: strings.ToUpper(string(ch)), AttrAromatic: true}, true)
		return nil
	}
	if r.pos+1 < len(r.runes) && unicode.IsLower(r.runes[r.pos+1]) {
		two := string(r.runes[r.pos : r.pos+2])
		if organicSubset[two] {
			r.pos += 2
			r.addAtom(Attrs{r.labelKey: two}, false)
			return nil
		}
	}
	one := string(ch)
	if !organicSubset[one] {
		return r.fail("atom " + one + " must be written in brackets")
	}
	r.pos++
	r.addAtom(Attrs{r.labelKey: one}, false)
	return nil
}

func (r *smilesReader) readBracketAtom() error {
	start := r.pos
	end := start + 1
	for end < len(r.runes) && r.runes[end] != ']' {
		end++
	}
	if end >= len(r.runes) {
		return r.fail("unclosed bracket")
	}
	content := r.runes[start+1 : end]
	i := 0

	attrs := Attrs{}
	digits := 0
	for i < len(content) && isDigit(content[i]) {
		i++
		digits++
	}
	if digits > 0 {
		iso, _ := strconv.Atoi(string(content[:digits]))
		attrs[AttrIsotope] = iso
	}

	if i >= len(content) || !unicode.IsLetter(content[i]) {
		return r.fail("bracket atom without element symbol")
	}
	aromatic := unicode.IsLower(content[i])
	symEnd := i + 1
	if !aromatic && symEnd < len(content) && unicode.IsLower(content[symEnd]) {
		symEnd++
	} else if aromatic && symEnd < len(content) && unicode.IsLower(content[symEnd]) {
		// aromatic two-letter forms: se, as
		if two := string(content[i : symEnd+1]); two == "se" || two == "as" {
			symEnd++
		}
	}
	sym := string(content[i:symEnd])
	if aromatic {
		sym = strings.ToUpper(sym[:1]) + sym[1:]
	}
	if !periodic.DefaultTable().Has(sym) {
		return r.fail("unknown element " + sym)
	}
	i = symEnd

	for i < len(content) && content[i] == '@' {
		i++
	}

	if i < len(content) && content[i] == 'H' {
		i++
		h := 1
		if i < len(content) && isDigit(content[i]) {
			h = int(content[i] - '0')
			i++
		}
		attrs[AttrHCount] = h
	}

	if i < len(content) && (content[i] == '+' || content[i] == '-') {
		sign := 1
		if content[i] == '-' {
			sign = -1
		}
		signRune := content[i]
		i++
		charge := 1
		switch {
		case i < len(content) && isDigit(content[i]):
			j := i
			for j < len(content) && isDigit(content[j]) {
				j++
			}
			charge, _ = strconv.Atoi(string(content[i:j]))
			i = j
		default:
			for i < len(content) && content[i] == signRune {
				charge++
				i++
			}
		}
		attrs[AttrCharge] = sign * charge
	}

	if i < len(content) && content[i] == ':' {
		i++
		for i < len(content) && isDigit(content[i]) {
			i++
		}
	}
	if i != len(content) {
		r.pos = start + 1 + i
		return r.fail("unexpected content in bracket atom")
	}

	attrs[r.labelKey] = sym
	if aromatic {
		attrs[AttrAromatic] = true
	}
	r.pos = end + 1
	r.addAtom(attrs, aromatic)
	return nil
}

func (r *smilesReader) readRingClosure() error {
	var label int
	if r.runes[r.pos] == '%' {
		if r.pos+2 >= len(r.runes) || !isDigit(r.runes[r.pos+1]) || !isDigit(r.runes[r.pos+2]) {
			return r.fail("'%' must be followed by two digits")
		}
		label, _ = strconv.Atoi(string(r.runes[r.pos+1 : r.pos+3]))
		r.pos += 3
	} else {
		label = int(r.runes[r.pos] - '0')
		r.pos++
	}
	if r.prev < 0 {
		return r.fail("ring bond without a preceding atom")
	}

	open, ok := r.rings[label]
	if !ok {
		r.rings[label] = ringBond{atom: r.prev, order: r.bond, explicit: r.bondSet}
		r.bond, r.bondSet = 0, false
		return nil
	}
	delete(r.rings, label)
	if open.atom == r.prev {
		return r.fail("ring bond to itself")
	}
	if r.g.HasEdge(IntKey(open.atom), IntKey(r.prev)) {
		return r.fail("ring bond duplicates an existing bond")
	}
	order, explicit := open.order, open.explicit
	if r.bondSet {
		order, explicit = r.bond, true
	}
	r.g.AddEdge(IntKey(open.atom), IntKey(r.prev), Attrs{AttrOrder: r.bondOrder(open.atom, r.prev, order, explicit)})
	r.bond, r.bondSet = 0, false
	return nil
}

// isDigit accepts ASCII digits only; labels and counts are read as r-'0'.
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
