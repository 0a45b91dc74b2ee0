package tree

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Kind categorizes the different kinds of nodes in a tree.
type Kind string

const (
	KindDirectory Kind = "directory" // A directory, local or from a repository
	KindFile      Kind = "file"      // A file, local or from a repository
	KindJSONValue Kind = "json"      // An object, array or primitive of a JSON/YAML document
)

// ID identifies a node for the lifetime of the in-memory tree.
type ID string

// NewID returns a fresh identifier. IDs are random so they are never reused
// after a tree is rebuilt.
func NewID() ID {
	return ID(uuid.NewString())
}

// Handle is the source-specific capability a lazy node is loaded from.
// Enumerate returns the node's children in any order; the caller sorts them.
type Handle interface {
	Enumerate(ctx context.Context) ([]*Node, error)
}

// Node represents a single entry in a tree: a directory, a file or a JSON value.
// Children are only ever replaced as a whole, so readers never see a
// partially-populated slice.
type Node struct {
	id     ID
	kind   Kind
	label  string
	key    string // JSON object key or array index
	path   string // repository or filesystem path, when known
	handle Handle

	mu          sync.RWMutex
	children    []*Node
	hasChildren bool
	loaded      bool
	err         error
}

// Option configures a node at construction.
type Option func(*Node)

// WithHandle attaches the capability used to lazily load the node's children.
func WithHandle(h Handle) Option {
	return func(n *Node) { n.handle = h }
}

// WithKey records the JSON key (or array index) the node was built from.
func WithKey(key string) Option {
	return func(n *Node) { n.key = key }
}

// WithPath records the source path of the node.
func WithPath(path string) Option {
	return func(n *Node) { n.path = path }
}

// WithChildren builds the node as fully loaded with the given children.
func WithChildren(children []*Node) Option {
	return func(n *Node) {
		n.children = children
		n.hasChildren = len(children) > 0
		n.loaded = true
	}
}

// Lazy marks the node as not yet loaded. hasChildren is the expand hint shown
// before the real children are known.
func Lazy(hasChildren bool) Option {
	return func(n *Node) {
		n.children = nil
		n.hasChildren = hasChildren
		n.loaded = false
	}
}

// New creates a node with a fresh ID. Without options the node is a loaded leaf.
func New(kind Kind, label string, opts ...Option) *Node {
	n := &Node{
		id:     NewID(),
		kind:   kind,
		label:  label,
		loaded: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	if !n.hasChildren {
		n.children = nil
	}
	return n
}

func (n *Node) ID() ID { return n.id }
func (n *Node) Kind() Kind { return n.kind }
func (n *Node) Label() string { return n.label }
func (n *Node) Key() string { return n.key }
func (n *Node) Path() string { return n.path }
func (n *Node) Handle() Handle { return n.handle }
func (n *Node) IsDirectory() bool { return n.kind == KindDirectory }

// Children returns the current children. The returned slice must not be modified.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.children
}

// HasChildren reports whether the node can be expanded.
func (n *Node) HasChildren() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.hasChildren
}

// Loaded reports whether Children reflects the source of truth.
func (n *Node) Loaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.loaded
}

// Err returns the error of the last failed load, if any.
func (n *Node) Err() error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.err
}

// SetChildren installs the result of a successful load. It is a no-op on a
// node that is already loaded, which keeps loading monotonic.
func (n *Node) SetChildren(children []*Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return false
	}
	n.children = children
	n.hasChildren = len(children) > 0
	n.loaded = true
	n.err = nil
	return true
}

// SetHasChildren updates the expand hint of a node that is not loaded yet.
func (n *Node) SetHasChildren(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return
	}
	n.hasChildren = v
}

// MarkFailed records a failed load. The node stays unloaded with no children.
func (n *Node) MarkFailed(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return
	}
	n.children = nil
	n.err = err
}
