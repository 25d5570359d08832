package crs

import (
	"strconv"
	"strings"
)

// ArgKind identifies what a WKT node argument holds.
type ArgKind int

const (
	ArgNode ArgKind = iota
	ArgString
	ArgNumber
	ArgEnum
)

// Arg is one argument inside a WKT node's brackets.
type Arg struct {
	Kind   ArgKind
	Node   *Node
	Text   string // quoted text, enum identifier, or the number as written
	Number float64
}

// Node is a WKT keyword with its bracketed arguments, such as
// UNIT["metre",1].
type Node struct {
	Keyword string
	Args    []Arg
}

// ParseWKT parses WKT1 or WKT2 text into a node tree.
func ParseWKT(text string) (*Node, error) {
	p := &wktParser{s: text}
	p.skipSpace()
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing text")
	}
	return n, nil
}

// Is reports whether the node keyword matches any of keywords,
// ignoring case.
func (n *Node) Is(keywords ...string) bool {
	for _, kw := range keywords {
		if strings.EqualFold(n.Keyword, kw) {
			return true
		}
	}
	return false
}

// Child returns the first child node whose keyword matches any of
// keywords, or nil.
func (n *Node) Child(keywords ...string) *Node {
	for _, a := range n.Args {
		if a.Kind == ArgNode && a.Node.Is(keywords...) {
			return a.Node
		}
	}
	return nil
}

// Children returns every child node matching any of keywords.
func (n *Node) Children(keywords ...string) []*Node {
	var nodes []*Node
	for _, a := range n.Args {
		if a.Kind == ArgNode && a.Node.Is(keywords...) {
			nodes = append(nodes, a.Node)
		}
	}
	return nodes
}

// Nodes returns every child node in order.
func (n *Node) Nodes() []*Node {
	var nodes []*Node
	for _, a := range n.Args {
		if a.Kind == ArgNode {
			nodes = append(nodes, a.Node)
		}
	}
	return nodes
}

// Name returns the first argument when it is a quoted string.
func (n *Node) Name() string {
	if len(n.Args) > 0 && n.Args[0].Kind == ArgString {
		return n.Args[0].Text
	}
	return ""
}

// Number returns the i-th argument as a number.
func (n *Node) Number(i int) (float64, bool) {
	if i < len(n.Args) && n.Args[i].Kind == ArgNumber {
		return n.Args[i].Number, true
	}
	return 0, false
}

// Text returns the i-th argument's text when it is a string, number,
// or enum.
func (n *Node) Text(i int) (string, bool) {
	if i < len(n.Args) && n.Args[i].Kind != ArgNode {
		return n.Args[i].Text, true
	}
	return "", false
}

type wktParser struct {
	s   string
	pos int
}

func (p *wktParser) errorf(format string, a ...any) error {
	return fmtErr("wkt offset %d: "+format, append([]any{p.pos}, a...)...)
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *wktParser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *wktParser) ident() string {
	start := p.pos
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *wktParser) node() (*Node, error) {
	kw := p.ident()
	if kw == "" {
		return nil, p.errorf("expected keyword")
	}
	p.skipSpace()
	if c := p.peek(); c != '[' && c != '(' {
		return nil, p.errorf("expected '[' after %s", kw)
	}
	p.pos++
	n := &Node{Keyword: strings.ToUpper(kw)}
	for {
		p.skipSpace()
		if c := p.peek(); c == ']' || c == ')' {
			if len(n.Args) > 0 {
				return nil, p.errorf("unexpected close after ',' in %s", kw)
			}
			p.pos++
			return n, nil
		}
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']', ')':
			p.pos++
			return n, nil
		case 0:
			return nil, p.errorf("unterminated %s", kw)
		default:
			return nil, p.errorf("unexpected %q in %s", p.peek(), kw)
		}
	}
}

func (p *wktParser) arg() (Arg, error) {
	c := p.peek()
	switch {
	case c == '"':
		s, err := p.quoted()
		return Arg{Kind: ArgString, Text: s}, err
	case c == '-' || c == '+' || c == '.' || c >= '0' && c <= '9':
		return p.number()
	case isIdentByte(c):
		save := p.pos
		id := p.ident()
		p.skipSpace()
		if c := p.peek(); c == '[' || c == '(' {
			p.pos = save
			n, err := p.node()
			return Arg{Kind: ArgNode, Node: n}, err
		}
		return Arg{Kind: ArgEnum, Text: id}, nil
	case c == 0:
		return Arg{}, p.errorf("unexpected end of text")
	default:
		return Arg{}, p.errorf("unexpected %q", c)
	}
}

func (p *wktParser) quoted() (string, error) {
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		p.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if p.peek() == '"' {
			b.WriteByte('"')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated string")
}

func (p *wktParser) number() (Arg, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	text := p.s[start:p.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Arg{}, p.errorf("bad number %q", text)
	}
	return Arg{Kind: ArgNumber, Text: text, Number: v}, nil
}
