package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseError is returned when input is not well-formed XML.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("xml parse error at %d:%d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyDocument = errors.New("document has no elements")
	ErrUnclosed      = errors.New("unexpected end of input")
)

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

type treeBuilder struct {
	parent  *Node
	current *Node
	text    strings.Builder
	seen    bool
}

func (b *treeBuilder) start(t xml.StartElement) {
	node := NewNode(qualifiedName(t.Name))
	for _, attr := range t.Attr {
		node.Attributes[qualifiedName(attr.Name)] = attr.Value
	}
	b.parent.Attach(node)
	b.parent = node
	b.current = node
	b.text.Reset()
	b.seen = true
}

func (b *treeBuilder) chars(data []byte) {
	if b.current == nil {
		return
	}
	b.text.Write(data)
	trimmed := strings.TrimSpace(b.text.String())
	if trimmed == "" {
		b.current.ClearValue()
		return
	}
	b.current.SetValue(trimmed)
}

func (b *treeBuilder) end(t xml.EndElement) error {
	name := qualifiedName(t.Name)
	if b.parent.parent == nil {
		return fmt.Errorf("unexpected closing tag </%s>", name)
	}
	if b.parent.Name != name {
		return fmt.Errorf("element <%s> closed by </%s>", b.parent.Name, name)
	}
	b.parent = b.parent.parent
	b.current = nil
	return nil
}

// Parse replaces the contents of d with the elements parsed from data.
// Element and attribute names keep their namespace prefix. The version,
// encoding and standalone fields are left untouched. On error d is left
// without elements.
func (d *Document) Parse(data []byte) error {
	for _, child := range d.container.Children() {
		child.RemoveFromParent()
	}

	container, err := parseElements(data)
	if err != nil {
		d.container = NewNode("")
		return err
	}
	d.container = container
	return nil
}

func parseElements(data []byte) (*Node, error) {
	container := NewNode("")
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	fail := func(err error) error {
		line, col := decoder.InputPos()
		return &ParseError{Line: line, Column: col, Err: err}
	}

	b := &treeBuilder{parent: container}
	for {
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fail(err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			b.start(t)
		case xml.EndElement:
			err = b.end(t)
			if err != nil {
				return nil, fail(err)
			}
		case xml.CharData:
			b.chars(t)
		}
	}

	if b.parent != container {
		return nil, fail(fmt.Errorf("%w: <%s> is not closed", ErrUnclosed, b.parent.Name))
	}
	if !b.seen {
		return nil, fail(ErrEmptyDocument)
	}
	return container, nil
}
