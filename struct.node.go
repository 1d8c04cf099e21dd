package godro

// Node is a graph vertex representing a station or basin. Variable keys
// are unique within the node.
type Node struct {
	ID        int
	Name      string
	Variables map[int]*Variable
}

// NewNode returns a node with an empty variable mapping.
func NewNode(id int, name string) *Node {
	return &Node{ID: id, Name: name, Variables: map[int]*Variable{}}
}

// AddVariable registers v by its id, replacing any previous entry.
func (n *Node) AddVariable(v *Variable) { n.Variables[v.ID] = v }
