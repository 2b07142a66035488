// Package xmltree is a small ordered XML tree with forgiving lookups.
//
// Reads never fail: looking up a child that does not exist returns an error
// element whose accessors all return zero values, so a chain like
//
//	doc.Root().Child("soapenv:Body").Child("ns:loginResponse").Child("return")
//
// degrades to the error element at the first missing link instead of
// requiring a nil check at every step.
package xmltree

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrorElementName is the name of the element returned by failed lookups.
const ErrorElementName = "XMLError"

// LookupError describes the link of a lookup chain that could not be found.
type LookupError struct {
	// Name is the element name that was looked up.
	Name string
	// Parent is the name of the element the lookup was performed on.
	Parent string
}

func (e *LookupError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("element <%s> not found", e.Name)
	}
	return fmt.Sprintf("element <%s> not found in <%s>", e.Name, e.Parent)
}

// Node is a named element with optional text, attributes and ordered children.
type Node struct {
	Name       string
	Attributes map[string]string

	value    string
	hasValue bool

	children []*Node
	parent   *Node

	lookupErr *LookupError
}

// ChildOption configures a node created by AddChild.
type ChildOption func(n *Node)

// WithValue sets the text value of a new node.
func WithValue(value string) ChildOption {
	return func(n *Node) {
		n.SetValue(value)
	}
}

// WithAttributes copies the given attributes onto a new node.
func WithAttributes(attrs map[string]string) ChildOption {
	return func(n *Node) {
		for k, v := range attrs {
			n.Attributes[k] = v
		}
	}
}

// NewNode creates a detached node.
func NewNode(name string, options ...ChildOption) *Node {
	n := &Node{Name: name, Attributes: map[string]string{}}
	for _, opt := range options {
		opt(n)
	}
	return n
}

func newErrorNode(err *LookupError) *Node {
	n := NewNode(ErrorElementName, WithValue(err.Error()))
	n.lookupErr = err
	return n
}

// IsError reports whether n is the element returned by a failed lookup.
// A nil node counts as one.
func (n *Node) IsError() bool {
	return n == nil || n.lookupErr != nil
}

// Err returns the *LookupError of an error element and nil otherwise.
func (n *Node) Err() error {
	if n == nil {
		return &LookupError{Name: "<nil>"}
	}
	if n.lookupErr == nil {
		return nil
	}
	return n.lookupErr
}

// Child returns the first direct child named name, or an error element if
// there is none. Child on an error element returns that same element.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return newErrorNode(&LookupError{Name: name})
	}
	if n.lookupErr != nil {
		return n
	}
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return newErrorNode(&LookupError{Name: name, Parent: n.Name})
}

// Path is shorthand for successive Child lookups.
func (n *Node) Path(names ...string) *Node {
	current := n
	for _, name := range names {
		current = current.Child(name)
	}
	return current
}

// Children returns the direct children in document order.
func (n *Node) Children() []*Node {
	if n.IsError() {
		return nil
	}
	return slices.Clone(n.children)
}

// Parent returns the parent node, or nil for detached nodes and document roots.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Value returns the text value and whether one is set.
func (n *Node) Value() (string, bool) {
	if n.IsError() {
		return "", false
	}
	return n.value, n.hasValue
}

// SetValue sets the text value.
func (n *Node) SetValue(value string) {
	n.value = value
	n.hasValue = true
}

// ClearValue removes the text value.
func (n *Node) ClearValue() {
	n.value = ""
	n.hasValue = false
}

// StringValue returns the text value, or "" if there is none.
func (n *Node) StringValue() string {
	value, _ := n.Value()
	return value
}

// IntValue returns the text value as an int, or 0 if it is not one.
func (n *Node) IntValue() int {
	v, err := strconv.Atoi(n.StringValue())
	if err != nil {
		return 0
	}
	return v
}

// FloatValue returns the text value as a float64, or 0 if it is not one.
func (n *Node) FloatValue() float64 {
	v, err := strconv.ParseFloat(n.StringValue(), 64)
	if err != nil {
		return 0
	}
	return v
}

// BoolValue is true if the text value is "true" (any case) or the integer 1.
func (n *Node) BoolValue() bool {
	s := n.StringValue()
	if strings.EqualFold(s, "true") {
		return true
	}
	v, err := strconv.Atoi(s)
	return err == nil && v == 1
}

// Attr returns the attribute value for key, or "" if it is not present.
func (n *Node) Attr(key string) string {
	if n.IsError() {
		return ""
	}
	return n.Attributes[key]
}

// All returns every element under the same parent sharing n's name, n included.
// Repeated elements are iterated this way:
//
//	for _, a := range data.Child("assignments").All() { ... }
func (n *Node) All() []*Node {
	if n.IsError() || n.parent == nil {
		return nil
	}
	var out []*Node
	for _, sibling := range n.parent.children {
		if sibling.Name == n.Name {
			out = append(out, sibling)
		}
	}
	return out
}

// First returns the first element of All, or nil.
func (n *Node) First() *Node {
	all := n.All()
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// Last returns the last element of All, or nil.
func (n *Node) Last() *Node {
	all := n.All()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

// Count returns len(All()).
func (n *Node) Count() int {
	return len(n.All())
}

func (n *Node) allWhere(keep func(e *Node) bool) []*Node {
	var found []*Node
	for _, e := range n.All() {
		if keep(e) {
			found = append(found, e)
		}
	}
	return found
}

// AllWithValue returns the elements of All whose text value equals value.
func (n *Node) AllWithValue(value string) []*Node {
	return n.allWhere(func(e *Node) bool {
		v, ok := e.Value()
		return ok && v == value
	})
}

// AllWithAttributes returns the elements of All carrying every given attribute.
func (n *Node) AllWithAttributes(attrs map[string]string) []*Node {
	return n.allWhere(func(e *Node) bool {
		for k, v := range attrs {
			got, ok := e.Attributes[k]
			if !ok || got != v {
				return false
			}
		}
		return true
	})
}

// Attach appends child to n and returns it. A child that is already attached
// somewhere is moved.
func (n *Node) Attach(child *Node) *Node {
	if child.parent != nil {
		child.RemoveFromParent()
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// AddChild creates a node, appends it to n and returns it.
func (n *Node) AddChild(name string, options ...ChildOption) *Node {
	return n.Attach(NewNode(name, options...))
}

// RemoveFromParent detaches n from its parent.
func (n *Node) RemoveFromParent() {
	if n == nil || n.parent == nil {
		return
	}
	siblings := n.parent.children
	idx := slices.Index(siblings, n)
	if idx >= 0 {
		n.parent.children = slices.Delete(siblings, idx, idx+1)
	}
	n.parent = nil
}

// depth is the number of ancestors of n.
func (n *Node) depth() int {
	count := 0
	for p := n.parent; p != nil; p = p.parent {
		count++
	}
	return count
}
