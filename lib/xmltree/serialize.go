package xmltree

import (
	"io"
	"slices"
	"strings"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
	"\r", "&#13;",
)

// attribute values are whitespace-normalized by parsers, so line breaks
// and tabs are written as character references.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
	"\r", "&#13;",
	"\n", "&#10;",
	"\t", "&#9;",
)

// Escape replaces the five XML special characters with entity references.
// Carriage returns are written as &#13; so they survive a reparse.
func Escape(s string) string {
	return escaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Serialize renders n and its descendants as indented XML.
func (n *Node) Serialize() string {
	var sb strings.Builder
	n.write(&sb, n.indentLevel())
	return sb.String()
}

// WriteTo writes the result of Serialize to w.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	written, err := io.WriteString(w, n.Serialize())
	return int64(written), err
}

// indentLevel is the depth of n below the top-level elements of its tree.
func (n *Node) indentLevel() int {
	level := n.depth() - 1
	if level < 0 {
		return 0
	}
	return level
}

func (n *Node) write(sb *strings.Builder, level int) {
	indent := strings.Repeat("\t", level)
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(n.Name)

	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(n.Attributes[k]))
		sb.WriteByte('"')
	}

	value, hasValue := n.value, n.hasValue && n.value != ""
	if !hasValue && len(n.children) == 0 {
		sb.WriteString(" />")
		return
	}
	sb.WriteByte('>')

	if len(n.children) == 0 {
		sb.WriteString(Escape(value))
		sb.WriteString("</")
		sb.WriteString(n.Name)
		sb.WriteByte('>')
		return
	}

	sb.WriteByte('\n')
	if hasValue {
		sb.WriteString(strings.Repeat("\t", level+1))
		sb.WriteString(Escape(value))
		sb.WriteByte('\n')
	}
	for _, child := range n.children {
		child.write(sb, level+1)
		sb.WriteByte('\n')
	}
	sb.WriteString(indent)
	sb.WriteString("</")
	sb.WriteString(n.Name)
	sb.WriteByte('>')
}
