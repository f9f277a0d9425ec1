package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Limits on a single dice term
const (
	MaxDice  = 100
	MaxSides = 1000
)

// Compare is a count-successes modifier such as cs>=15
type Compare struct {
	Op        string `json:"op"`
	Threshold int    `json:"threshold"`
}

// Match reports whether a single face counts as a success
func (c *Compare) Match(face int) bool {
	switch c.Op {
	case ">=":
		return face >= c.Threshold
	case "<=":
		return face <= c.Threshold
	case ">":
		return face > c.Threshold
	case "<":
		return face < c.Threshold
	default:
		return face == c.Threshold
	}
}

// Probability is the chance one die of the given size succeeds
func (c *Compare) Probability(sides int) float64 {
	if sides < 1 {
		return 0
	}
	// faces in [lo, hi] succeed
	lo, hi := 1, sides
	switch c.Op {
	case ">=":
		lo = c.Threshold
	case ">":
		lo = c.Threshold + 1
	case "<=":
		hi = c.Threshold
	case "<":
		hi = c.Threshold - 1
	default:
		lo, hi = c.Threshold, c.Threshold
	}
	lo, hi = max(lo, 1), min(hi, sides)
	if hi < lo {
		return 0
	}
	return float64(hi-lo+1) / float64(sides)
}

// DiceTerm is NdM with an optional variable count and compare modifier
type DiceTerm struct {
	Count    int      `json:"count"`
	CountVar string   `json:"countVar,omitempty"`
	Sides    int      `json:"sides"`
	Compare  *Compare `json:"compare,omitempty"`
}

func (t *DiceTerm) String() string {
	var b strings.Builder
	if t.CountVar != "" {
		b.WriteString("@{" + t.CountVar + "}")
	} else {
		b.WriteString(strconv.Itoa(t.Count))
	}
	b.WriteString("d" + strconv.Itoa(t.Sides))
	if t.Compare != nil {
		b.WriteString("cs" + t.Compare.Op + strconv.Itoa(t.Compare.Threshold))
	}
	return b.String()
}

// Mean is the expected value of the term for count dice
func (t *DiceTerm) Mean(count int) float64 {
	if t.Compare != nil {
		return float64(count) * t.Compare.Probability(t.Sides)
	}
	return float64(count) * float64(t.Sides+1) / 2
}

func (t *DiceTerm) resolveCount(vars Vars) (int, error) {
	if t.CountVar == "" {
		return t.Count, nil
	}
	v, ok := vars[t.CountVar]
	if !ok {
		return 0, dherr.Authoringf("dice count references unknown variable @%s", t.CountVar).
			WithMeta("variable", t.CountVar)
	}
	if math.IsNaN(v) || v > MaxDice {
		return 0, dherr.Authoringf("@%s rolls %v dice, the limit is %d", t.CountVar, v, MaxDice).
			WithMeta("variable", t.CountVar)
	}
	count := int(math.Floor(v))
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (t *DiceTerm) roll(roller dice.Roller, count int) (TermResult, error) {
	tr := TermResult{Term: t.String(), Rolls: []int{}}
	if count == 0 {
		return tr, nil
	}
	rolled, err := roller.Roll(count, t.Sides, 0)
	if err != nil {
		return tr, err
	}
	tr.Rolls = rolled.Rolls
	if t.Compare == nil {
		tr.Value = rolled.Total
		return tr, nil
	}
	for _, face := range rolled.Rolls {
		if t.Compare.Match(face) {
			tr.Successes++
		}
	}
	tr.Value = tr.Successes
	return tr, nil
}

// scanner lifts dice terms and variables out of formula text
type scanner struct {
	src   string
	pos   int
	out   strings.Builder
	terms []*DiceTerm
	vars  []string
	index map[string]int
}

func (s *scanner) scan() (string, error) {
	s.index = map[string]int{}
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '@':
			start := s.pos
			name, err := s.readVariable()
			if err != nil {
				return "", err
			}
			if s.atDice() {
				if err := s.readDice(start, 0, name); err != nil {
					return "", err
				}
				continue
			}
			s.out.WriteString(s.variable(name))
		case isDigit(c) || c == '.':
			start := s.pos
			num := s.readNumber()
			if s.atDice() {
				count, err := strconv.Atoi(num)
				if err != nil {
					return "", parseError(s.src, start, "dice count %q must be a whole number", num)
				}
				if count > MaxDice {
					return "", parseError(s.src, start, "at most %d dice per term", MaxDice)
				}
				if err := s.readDice(start, count, ""); err != nil {
					return "", err
				}
				continue
			}
			if strings.Count(num, ".") > 1 || num == "." {
				return "", parseError(s.src, start, "malformed number %q", num)
			}
			s.out.WriteString(num)
		case c == 'd' && s.atDice():
			if err := s.readDice(s.pos, 1, ""); err != nil {
				return "", err
			}
		case isLetter(c):
			start := s.pos
			ident := s.readIdent()
			if !isFunction(ident) {
				return "", parseError(s.src, start, "unrecognized term %q", ident)
			}
			s.out.WriteString(ident)
		case strings.IndexByte("+-*/(), \t", c) >= 0:
			s.out.WriteByte(c)
			s.pos++
		default:
			return "", parseError(s.src, s.pos, "unexpected character %q", c)
		}
	}
	return s.out.String(), nil
}

// atDice reports whether the cursor sits on 'd' followed by a digit
func (s *scanner) atDice() bool {
	return s.pos+1 < len(s.src) && s.src[s.pos] == 'd' && isDigit(s.src[s.pos+1])
}

func (s *scanner) readDice(start, count int, countVar string) error {
	s.pos++ // 'd'
	sides, err := strconv.Atoi(s.readDigits())
	if err != nil || sides > MaxSides {
		return parseError(s.src, start, "dice may have at most %d sides", MaxSides)
	}
	if sides < 1 {
		return parseError(s.src, start, "dice must have at least one side")
	}
	term := &DiceTerm{Count: count, CountVar: countVar, Sides: sides}

	if strings.HasPrefix(s.src[s.pos:], "cs") {
		s.pos += 2
		op := ""
		for _, candidate := range []string{">=", "<=", ">", "<", "="} {
			if strings.HasPrefix(s.src[s.pos:], candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return parseError(s.src, s.pos, "compare modifier needs one of >= <= > < =")
		}
		s.pos += len(op)
		digits := s.readDigits()
		if digits == "" {
			return parseError(s.src, s.pos, "compare modifier needs a threshold")
		}
		threshold, err := strconv.Atoi(digits)
		if err != nil || threshold > MaxSides {
			return parseError(s.src, s.pos-len(digits), "compare threshold %s is out of range", digits)
		}
		term.Compare = &Compare{Op: op, Threshold: threshold}
	}

	if s.pos < len(s.src) && (isLetter(s.src[s.pos]) || isDigit(s.src[s.pos])) {
		return parseError(s.src, s.pos, "unrecognized dice modifier %q", s.src[s.pos:])
	}

	s.out.WriteString(termName(len(s.terms)))
	s.terms = append(s.terms, term)
	return nil
}

func (s *scanner) readVariable() (string, error) {
	start := s.pos
	s.pos++ // '@'
	if s.pos < len(s.src) && s.src[s.pos] == '{' {
		end := strings.IndexByte(s.src[s.pos:], '}')
		if end < 0 {
			return "", parseError(s.src, start, "unterminated variable reference")
		}
		name := strings.TrimSpace(s.src[s.pos+1 : s.pos+end])
		s.pos += end + 1
		if !validName(name) {
			return "", parseError(s.src, start, "invalid variable name %q", name)
		}
		return name, nil
	}

	nameStart := s.pos
	for s.pos < len(s.src) && (isLetter(s.src[s.pos]) || isDigit(s.src[s.pos]) || s.src[s.pos] == '.') {
		s.pos++
	}
	name := strings.TrimRight(s.src[nameStart:s.pos], ".")
	s.pos = nameStart + len(name)
	if !validName(name) {
		return "", parseError(s.src, start, "invalid variable name %q", name)
	}
	return name, nil
}

func (s *scanner) variable(name string) string {
	if i, ok := s.index[name]; ok {
		return varName(i)
	}
	s.index[name] = len(s.vars)
	s.vars = append(s.vars, name)
	return varName(len(s.vars) - 1)
}

func (s *scanner) readNumber() string {
	start := s.pos
	for s.pos < len(s.src) && (isDigit(s.src[s.pos]) || s.src[s.pos] == '.') {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) readDigits() string {
	start := s.pos
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *scanner) readIdent() string {
	start := s.pos
	for s.pos < len(s.src) && (isLetter(s.src[s.pos]) || isDigit(s.src[s.pos])) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func validName(name string) bool {
	if name == "" || !isLetter(name[0]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isLetter(c) && !isDigit(c) && c != '.' {
			return false
		}
	}
	return true
}

func isFunction(name string) bool {
	for _, fn := range functions {
		if fn == name {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
