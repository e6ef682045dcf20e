package types

// OutlineNode pairs a SymbolDefinition with its lexically nested children:
// methods inside a class, nested functions, nested classes, module-level
// declarations. The module itself is the tree root; each node exclusively
// owns its children.
type OutlineNode struct {
	Symbol   *SymbolDefinition
	Children []*OutlineNode
}

// AddChild appends a child node and returns it for chaining during tree
// construction.
func (n *OutlineNode) AddChild(child *OutlineNode) *OutlineNode {
	n.Children = append(n.Children, child)
	return child
}

// Walk visits the node and every descendant depth-first, in declaration
// order. Walking stops early if fn returns false.
func (n *OutlineNode) Walk(fn func(*OutlineNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}
