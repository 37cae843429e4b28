package pptx

import "encoding/xml"

// node is a generic XML element. Child order is preserved, which matters for shape order.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) local() string {
	if n == nil {
		return ""
	}
	return n.XMLName.Local
}

// child returns the first direct child with the given local name, or nil.
func (n *node) child(local string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

// path follows a chain of first-match children.
func (n *node) path(locals ...string) *node {
	cur := n
	for _, local := range locals {
		cur = cur.child(local)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (n *node) children(local string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// attr returns an un-namespaced attribute value.
func (n *node) attr(local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// relAttr returns an attribute in the relationships namespace (r:id, r:dm, ...).
func (n *node) relAttr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == relationshipsNS {
			return a.Value
		}
	}
	return ""
}

