package xmltree

import (
	"fmt"
	"strings"
)

const rootMissingMessage = "XML Document must have root element."

// Document is the top of a tree. Its top-level elements are attached to an
// unnamed container node that is never serialized.
type Document struct {
	Version    string
	Encoding   string
	Standalone string

	container *Node
}

type DocumentOption func(d *Document)

func WithVersion(version string) DocumentOption {
	return func(d *Document) {
		d.Version = version
	}
}

func WithEncoding(encoding string) DocumentOption {
	return func(d *Document) {
		d.Encoding = encoding
	}
}

func WithStandalone(standalone string) DocumentOption {
	return func(d *Document) {
		d.Standalone = standalone
	}
}

// NewDocument creates an empty document with version 1.0, utf-8 encoding and
// standalone="no" unless overridden.
func NewDocument(options ...DocumentOption) *Document {
	d := &Document{
		Version:    "1.0",
		Encoding:   "utf-8",
		Standalone: "no",
		container:  NewNode(""),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// ParseDocument creates a document and parses data into it.
func ParseDocument(data []byte, options ...DocumentOption) (*Document, error) {
	doc := NewDocument(options...)
	err := doc.Parse(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Root returns the single top-level element. If the document has zero or
// several top-level elements an error element is returned instead.
func (d *Document) Root() *Node {
	if len(d.container.children) == 1 {
		return d.container.children[0]
	}
	root := NewNode(ErrorElementName, WithValue(rootMissingMessage))
	root.lookupErr = &LookupError{Name: "root"}
	return root
}

// Elements returns the top-level elements.
func (d *Document) Elements() []*Node {
	return d.container.Children()
}

// AddChild appends a top-level element.
func (d *Document) AddChild(name string, options ...ChildOption) *Node {
	return d.container.AddChild(name, options...)
}

// Attach appends an existing node as a top-level element.
func (d *Document) Attach(n *Node) *Node {
	return d.container.Attach(n)
}

func (d *Document) header() string {
	return fmt.Sprintf(
		`<?xml version="%s" encoding="%s" standalone="%s"?>`,
		Escape(d.Version), Escape(d.Encoding), Escape(d.Standalone),
	)
}

// Serialize renders the header line followed by every top-level element.
func (d *Document) Serialize() string {
	var sb strings.Builder
	sb.WriteString(d.header())
	sb.WriteByte('\n')
	for _, child := range d.container.children {
		sb.WriteString(child.Serialize())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Bytes is Serialize as a byte slice, convenient for request bodies.
func (d *Document) Bytes() []byte {
	return []byte(d.Serialize())
}
