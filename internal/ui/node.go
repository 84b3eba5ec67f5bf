// Package ui holds the small set of form primitives auth-flow steps render
// with, the theme that styles them, and an HTML renderer.
package ui

// Kind identifies a primitive.
type Kind string

const (
	KindSection Kind = "section"
	KindHeader  Kind = "header"
	KindBody    Kind = "body"
	KindFooter  Kind = "footer"
	KindMessage Kind = "message"
	KindError   Kind = "error"
	KindForm    Kind = "form"
	KindRadio   Kind = "radio"
	KindInput   Kind = "input"
	KindButton  Kind = "button"
	KindLink    Kind = "link"
)

// Node is one element of a rendered view. A nil *Node renders nothing.
type Node struct {
	Kind     Kind    `json:"kind"`
	Class    string  `json:"class,omitempty"`
	Name     string  `json:"name,omitempty"`
	Text     string  `json:"text,omitempty"`
	Action   string  `json:"action,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

func compact(nodes []*Node) []*Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func Section(th *Theme, children ...*Node) *Node {
	return &Node{Kind: KindSection, Class: th.FormSection, Children: compact(children)}
}

func Header(th *Theme, text string) *Node {
	return &Node{Kind: KindHeader, Class: th.SectionHeader, Text: text}
}

func Body(th *Theme, children ...*Node) *Node {
	return &Node{Kind: KindBody, Class: th.SectionBody, Children: compact(children)}
}

func Footer(th *Theme, children ...*Node) *Node {
	return &Node{Kind: KindFooter, Class: th.SectionFooter, Children: compact(children)}
}

func MessageRow(th *Theme, text string) *Node {
	return &Node{Kind: KindMessage, Class: th.Row, Text: text}
}

func ErrorRow(th *Theme, text string) *Node {
	return &Node{Kind: KindError, Class: th.Error, Text: text}
}

// Form posts its inputs to action when one of its buttons is pressed.
func Form(action string, children ...*Node) *Node {
	return &Node{Kind: KindForm, Action: action, Children: compact(children)}
}

func RadioRow(th *Theme, name, placeholder string) *Node {
	return &Node{Kind: KindRadio, Class: th.Radio, Name: name, Text: placeholder}
}

func InputRow(th *Theme, name, placeholder string) *Node {
	return &Node{Kind: KindInput, Class: th.Input, Name: name, Text: placeholder}
}

func ButtonRow(th *Theme, text string, disabled bool) *Node {
	return &Node{Kind: KindButton, Class: th.Button, Text: text, Disabled: disabled}
}

// Link posts to action without any form inputs.
func Link(th *Theme, action, text string) *Node {
	return &Node{Kind: KindLink, Class: th.Link, Action: action, Text: text}
}

// Find returns the first node in the tree matching kind and name.
// An empty name matches any node of that kind.
func (n *Node) Find(kind Kind, name string) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind && (name == "" || n.Name == name) {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(kind, name); f != nil {
			return f
		}
	}
	return nil
}

// Count returns how many nodes of kind the tree contains.
func (n *Node) Count(kind Kind) int {
	if n == nil {
		return 0
	}
	c := 0
	if n.Kind == kind {
		c++
	}
	for _, ch := range n.Children {
		c += ch.Count(kind)
	}
	return c
}
