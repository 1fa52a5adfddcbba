package rdf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// ParseRDFXML parses an RDF/XML document.
//
// Supported: rdf:RDF root (or a single top-level node element),
// rdf:Description and typed node elements, rdf:about / rdf:ID /
// rdf:nodeID, property attributes, rdf:resource, rdf:datatype, xml:lang
// (inherited), xml:base, rdf:li, and rdf:parseType Resource, Literal and
// Collection. Reification via rdf:ID on property elements is not.
func ParseRDFXML(r io.Reader, opts ParseOptions) (*Graph, error) {
	p := &xmlParser{
		dec:   xml.NewDecoder(r),
		scope: opts.BlankScope,
		graph: &Graph{},
	}
	if opts.Base != "" {
		base, err := url.Parse(opts.Base)
		if err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", opts.Base, err)
		}
		p.base = base
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type xmlParser struct {
	dec    *xml.Decoder
	base   *url.URL
	scope  string
	bnodes int
	graph  *Graph
}

func (p *xmlParser) parse() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return p.wrap(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		p.declareNamespaces(start)
		base := p.elementBase(start, p.base)
		lang := attrValue(start, XMLNamespace, "lang")
		if start.Name.Space == RDFNamespace && start.Name.Local == "RDF" {
			return p.nodeElements(base, lang)
		}
		_, err = p.nodeElement(start, base, lang)
		return err
	}
}

// nodeElements reads node elements until the enclosing end element.
func (p *xmlParser) nodeElements(base *url.URL, lang string) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.nodeElement(t, base, lang); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// nodeElement consumes a node element and returns its subject.
func (p *xmlParser) nodeElement(start xml.StartElement, base *url.URL, lang string) (Term, error) {
	p.declareNamespaces(start)
	base = p.elementBase(start, base)
	if l, ok := lookupAttr(start, XMLNamespace, "lang"); ok {
		lang = l
	}

	subj, err := p.subjectOf(start, base)
	if err != nil {
		return nil, err
	}
	if !(start.Name.Space == RDFNamespace && start.Name.Local == "Description") {
		p.graph.add(subj, IRI(RDFType), IRI(start.Name.Space+start.Name.Local))
	}
	p.propertyAttributes(subj, start, lang)

	li := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.propertyElement(subj, t, base, lang, &li); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subj, nil
		}
	}
}

func (p *xmlParser) subjectOf(start xml.StartElement, base *url.URL) (Term, error) {
	if about, ok := lookupAttr(start, RDFNamespace, "about"); ok {
		return IRI(resolveAgainst(base, about)), nil
	}
	if id, ok := lookupAttr(start, RDFNamespace, "ID"); ok {
		return IRI(resolveAgainst(base, "#"+id)), nil
	}
	if nodeID, ok := lookupAttr(start, RDFNamespace, "nodeID"); ok {
		return Blank(p.scope + nodeID), nil
	}
	return p.freshBlank(), nil
}

func (p *xmlParser) propertyElement(subj Term, start xml.StartElement, base *url.URL, lang string, li *int) error {
	p.declareNamespaces(start)
	base = p.elementBase(start, base)
	if l, ok := lookupAttr(start, XMLNamespace, "lang"); ok {
		lang = l
	}

	pred := IRI(start.Name.Space + start.Name.Local)
	if start.Name.Space == RDFNamespace && start.Name.Local == "li" {
		*li++
		pred = IRI(RDFNamespace + "_" + strconv.Itoa(*li))
	}

	switch attrValue(start, RDFNamespace, "parseType") {
	case "Resource":
		obj := p.freshBlank()
		p.graph.add(subj, pred, obj)
		nested := 0
		for {
			tok, err := p.dec.Token()
			if err != nil {
				return p.wrap(err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if err := p.propertyElement(obj, t, base, lang, &nested); err != nil {
					return err
				}
			case xml.EndElement:
				return nil
			}
		}
	case "Literal":
		text, err := p.innerText()
		if err != nil {
			return err
		}
		p.graph.add(subj, pred, NewTypedLiteral(text, RDFXMLLiteral))
		return nil
	case "Collection":
		var items []Term
		for {
			tok, err := p.dec.Token()
			if err != nil {
				return p.wrap(err)
			}
			if t, ok := tok.(xml.StartElement); ok {
				item, err := p.nodeElement(t, base, lang)
				if err != nil {
					return err
				}
				items = append(items, item)
				continue
			}
			if _, ok := tok.(xml.EndElement); ok {
				break
			}
		}
		p.graph.add(subj, pred, p.list(items))
		return nil
	}

	var obj Term
	if res, ok := lookupAttr(start, RDFNamespace, "resource"); ok {
		obj = IRI(resolveAgainst(base, res))
	} else if nodeID, ok := lookupAttr(start, RDFNamespace, "nodeID"); ok {
		obj = Blank(p.scope + nodeID)
	}
	datatype := attrValue(start, RDFNamespace, "datatype")

	var text strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if obj != nil {
				return p.errorf("property element %s has both rdf:resource and content", start.Name.Local)
			}
			node, err := p.nodeElement(t, base, lang)
			if err != nil {
				return err
			}
			obj = node
		case xml.EndElement:
			if obj == nil && hasPropertyAttributes(start) {
				obj = p.freshBlank()
			}
			if obj != nil {
				p.graph.add(subj, pred, obj)
				p.propertyAttributes(obj, start, lang)
				return nil
			}
			switch {
			case datatype != "":
				p.graph.add(subj, pred, NewTypedLiteral(text.String(), resolveAgainst(base, datatype)))
			case lang != "":
				p.graph.add(subj, pred, NewLangLiteral(text.String(), lang))
			default:
				p.graph.add(subj, pred, NewLiteral(text.String()))
			}
			return nil
		}
	}
}

// propertyAttributes emits a triple for every non-syntax attribute.
func (p *xmlParser) propertyAttributes(subj Term, start xml.StartElement, lang string) {
	for _, a := range start.Attr {
		if isSyntaxAttr(a.Name) {
			continue
		}
		if a.Name.Space == RDFNamespace && a.Name.Local == "type" {
			p.graph.add(subj, IRI(RDFType), IRI(a.Value))
			continue
		}
		var obj Term = NewLiteral(a.Value)
		if lang != "" {
			obj = NewLangLiteral(a.Value, lang)
		}
		p.graph.add(subj, IRI(a.Name.Space+a.Name.Local), obj)
	}
}

func (p *xmlParser) list(items []Term) Term {
	if len(items) == 0 {
		return IRI(RDFNil)
	}
	head := p.freshBlank()
	cur := head
	for i, item := range items {
		p.graph.add(cur, RDFFirst, item)
		if i == len(items)-1 {
			p.graph.add(cur, RDFRest, IRI(RDFNil))
			break
		}
		next := p.freshBlank()
		p.graph.add(cur, RDFRest, next)
		cur = next
	}
	return head
}

// innerText returns the character data up to the matching end element.
func (p *xmlParser) innerText() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
		}
	}
}

func (p *xmlParser) declareNamespaces(start xml.StartElement) {
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == "xmlns":
			p.graph.declare(a.Name.Local, a.Value)
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			p.graph.declare("", a.Value)
		}
	}
}

func (p *xmlParser) elementBase(start xml.StartElement, base *url.URL) *url.URL {
	v, ok := lookupAttr(start, XMLNamespace, "base")
	if !ok {
		return base
	}
	u, err := url.Parse(resolveAgainst(base, v))
	if err != nil {
		return base
	}
	return u
}

func (p *xmlParser) freshBlank() Blank {
	p.bnodes++
	return Blank(p.scope + ".g" + strconv.Itoa(p.bnodes))
}

func (p *xmlParser) wrap(err error) error {
	if errors.Is(err, io.EOF) {
		return p.errorf("unexpected end of document")
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Line: se.Line, Column: 1, Msg: se.Msg}
	}
	return p.errorf("%v", err)
}

func (p *xmlParser) errorf(format string, args ...any) error {
	line, col := p.dec.InputPos()
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func resolveAgainst(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}

func lookupAttr(start xml.StartElement, space, local string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func attrValue(start xml.StartElement, space, local string) string {
	v, _ := lookupAttr(start, space, local)
	return v
}

func isSyntaxAttr(name xml.Name) bool {
	switch {
	case name.Space == "xmlns", name.Space == "" && name.Local == "xmlns":
		return true
	case name.Space == XMLNamespace || name.Space == "xml":
		return true
	case name.Space == "":
		// Unqualified attributes carry no RDF meaning.
		return true
	case name.Space == RDFNamespace:
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType", "li":
			return true
		}
	}
	return false
}

func hasPropertyAttributes(start xml.StartElement) bool {
	for _, a := range start.Attr {
		if !isSyntaxAttr(a.Name) {
			return true
		}
	}
	return false
}
