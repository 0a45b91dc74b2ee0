package tree

// Find returns the node with the given ID among the already-loaded nodes
// under root. It never triggers a load.
func Find(root *Node, id ID) *Node {
	if root == nil {
		return nil
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.id == id {
			return n
		}
		stack = append(stack, n.Children()...)
	}
	return nil
}
