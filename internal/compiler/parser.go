package compiler

import "fmt"

// Width is the operand size of a memory access in bits.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
)

func (w Width) max() uint64 {
	if w == Width8 {
		return 0xFF
	}
	return 0xFFFF
}

// Stmt is a top-level AGL statement.
type Stmt interface {
	stmt()
}

// WriteStmt stores Value at Addr unconditionally.
type WriteStmt struct {
	Width Width
	Addr  uint32
	Value uint16
	Line  int
}

// IfStmt guards every write in Body with a comparison of the value at Addr.
type IfStmt struct {
	Width    Width
	Addr     uint32
	Value    uint16
	NotEqual bool
	Body     []*WriteStmt
	Line     int
}

func (*WriteStmt) stmt() {}
func (*IfStmt) stmt()    {}

func (s *WriteStmt) String() string {
	return fmt.Sprintf("write%d 0x%08x 0x%04x", s.Width, s.Addr, s.Value)
}

func (s *IfStmt) String() string {
	op := "=="
	if s.NotEqual {
		op = "!="
	}
	return fmt.Sprintf("if%d 0x%08x %s 0x%04x {%d writes}", s.Width, s.Addr, op, s.Value, len(s.Body))
}

// Parse builds the statement list from tokens produced by Lex.
func Parse(tokens []Token) ([]Stmt, error) {
	p := &parser{tokens: tokens}
	var stmts []Stmt
	for {
		p.skipSemis()
		if p.cur().Type == EOF {
			return stmts, nil
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) cur() Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Type: EOF}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) take() Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) skipSemis() {
	for p.cur().Type == SEMI {
		p.take()
	}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	t := p.take()
	if t.Type != tt {
		return t, errorAt(t, "expected %s, got %s", tt, describe(t))
	}
	return t, nil
}

func (p *parser) statement() (Stmt, error) {
	t := p.cur()
	if t.Type != IDENTIFIER {
		return nil, errorAt(t, "expected statement, got %s", describe(t))
	}
	switch t.Value {
	case "write8", "write16":
		return p.write()
	case "if8", "if16":
		return p.conditional()
	default:
		return nil, errorAt(t, "unknown statement %q", t.Value)
	}
}

func (p *parser) write() (*WriteStmt, error) {
	kw := p.take()
	w := widthOf(kw.Value)
	addr, err := p.address(w)
	if err != nil {
		return nil, err
	}
	val, err := p.value(w)
	if err != nil {
		return nil, err
	}
	return &WriteStmt{Width: w, Addr: addr, Value: val, Line: kw.Line}, nil
}

func (p *parser) conditional() (*IfStmt, error) {
	kw := p.take()
	w := widthOf(kw.Value)
	addr, err := p.address(w)
	if err != nil {
		return nil, err
	}

	s := &IfStmt{Width: w, Addr: addr, Line: kw.Line}
	switch op := p.take(); op.Type {
	case EQUALS:
	case NOT_EQ:
		s.NotEqual = true
	default:
		return nil, errorAt(op, "expected == or !=, got %s", describe(op))
	}

	if s.Value, err = p.value(w); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}

	for {
		p.skipSemis()
		t := p.cur()
		switch {
		case t.Type == RBRACE:
			p.take()
			if len(s.Body) == 0 {
				return nil, errorAt(kw, "conditional block has no writes")
			}
			return s, nil
		case t.Type == EOF:
			return nil, errorAt(t, "unterminated block opened at line %d", kw.Line)
		case t.Type == IDENTIFIER && (t.Value == "if8" || t.Value == "if16"):
			return nil, errorAt(t, "nested conditional blocks are not supported")
		case t.Type == IDENTIFIER && (t.Value == "write8" || t.Value == "write16"):
			ws, err := p.write()
			if err != nil {
				return nil, err
			}
			s.Body = append(s.Body, ws)
		default:
			return nil, errorAt(t, "expected write inside block, got %s", describe(t))
		}
	}
}

func (p *parser) address(w Width) (uint32, error) {
	t, err := p.expect(NUMBER)
	if err != nil {
		return 0, err
	}
	if t.Num > 0xFFFFFFFF {
		return 0, errorAt(t, "address %s does not fit in 32 bits", t.Value)
	}
	if w == Width16 && t.Num%2 != 0 {
		return 0, errorAt(t, "16-bit access at odd address %s", t.Value)
	}
	return uint32(t.Num), nil
}

func (p *parser) value(w Width) (uint16, error) {
	t, err := p.expect(NUMBER)
	if err != nil {
		return 0, err
	}
	if t.Num > w.max() {
		return 0, errorAt(t, "value %s does not fit in %d bits", t.Value, w)
	}
	return uint16(t.Num), nil
}

func widthOf(keyword string) Width {
	if keyword == "write8" || keyword == "if8" {
		return Width8
	}
	return Width16
}

func describe(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENTIFIER:
		return fmt.Sprintf("%q", t.Value)
	case NUMBER:
		return "number " + t.Value
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}
