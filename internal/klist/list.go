// Package klist provides the zero-allocation intrusive containers every
// other kernel-core package is built on: an intrusive doubly-linked list
// (nodes embedded in the owning entity) and an ordered map keyed by a
// signed integer or string, used wherever the core needs in-order
// traversal (pid allocation, block indices, directory entries).
//
// Grounded on gcsfuse's internal/lrucache ordered-container-over-a-map
// shape; the ordering requirement (in-order traversal, not just O(1)
// lookup) is not served by any ordered-map dependency in the retrieval
// pack, so the tree itself is hand-rolled stdlib (see DESIGN.md).
package klist

// Node is embedded in any entity that can be a member of a List. An entity
// can be a member of more than one List simultaneously only if it embeds
// more than one Node.
type Node struct {
	prev, next *Node
	list       *List
	self       any
}

// Value returns the entity that embeds this Node.
func (n *Node) Value() any { return n.self }

// List is an intrusive doubly-linked list with a sentinel head. Insert and
// remove are O(1) and never allocate.
type List struct {
	head Node
	size int
}

// Init must be called once before use unless the zero value is used via New.
func (l *List) Init() *List {
	l.head.next = &l.head
	l.head.prev = &l.head
	l.size = 0
	return l
}

// New returns an initialized empty List.
func New() *List {
	return new(List).Init()
}

// Len returns the number of elements currently in the list.
func (l *List) Len() int { return l.size }

func (l *List) lazyInit() {
	if l.head.next == nil {
		l.Init()
	}
}

// PushBack attaches node, owned by value, to the back of the list.
func (l *List) PushBack(node *Node, value any) {
	l.lazyInit()
	node.self = value
	node.list = l
	last := l.head.prev
	node.prev = last
	node.next = &l.head
	last.next = node
	l.head.prev = node
	l.size++
}

// PushFront attaches node to the front of the list.
func (l *List) PushFront(node *Node, value any) {
	l.lazyInit()
	node.self = value
	node.list = l
	first := l.head.next
	node.next = first
	node.prev = &l.head
	first.prev = node
	l.head.next = node
	l.size++
}

// Remove detaches node from whatever list it belongs to. A no-op if node is
// not currently a member of any list.
func Remove(node *Node) {
	if node.list == nil {
		return
	}
	node.prev.next = node.next
	node.next.prev = node.prev
	node.list.size--
	node.prev = nil
	node.next = nil
	node.list = nil
	node.self = nil
}

// InList reports whether node currently belongs to a list.
func (n *Node) InList() bool { return n.list != nil }

// Next returns the value following node in its list, or nil at the end.
func (n *Node) Next() any {
	if n.list == nil || n.next == &n.list.head {
		return nil
	}
	return n.next.self
}

// NextNode returns the raw node following n, which may be the list's
// sentinel (check with List.End) if n is the last real node.
func (n *Node) NextNode() *Node { return n.next }

// InsertBefore attaches node, owned by value, immediately before mark.
func (l *List) InsertBefore(mark, node *Node, value any) {
	l.lazyInit()
	node.self = value
	node.list = l
	prev := mark.prev
	node.prev = prev
	node.next = mark
	prev.next = node
	mark.prev = node
	l.size++
}

// Front returns the value at the front of the list, or nil if empty.
func (l *List) Front() any {
	l.lazyInit()
	if l.head.next == &l.head {
		return nil
	}
	return l.head.next.self
}

// FrontNode returns the first node in the list, or nil if empty.
func (l *List) FrontNode() *Node {
	l.lazyInit()
	if l.head.next == &l.head {
		return nil
	}
	return l.head.next
}

// End reports whether n is the list's sentinel (one past the last node),
// i.e. whether iteration via Next has finished.
func (l *List) End(n *Node) bool {
	return n == &l.head
}

// Each calls fn for every value in the list, front to back. fn must not
// mutate the list.
func (l *List) Each(fn func(value any)) {
	l.lazyInit()
	for n := l.head.next; n != &l.head; n = n.next {
		fn(n.self)
	}
}

// EachNode calls fn for every node in the list, front to back, allowing fn
// to remove the current node (but not other nodes) during iteration.
func (l *List) EachNode(fn func(node *Node)) {
	l.lazyInit()
	n := l.head.next
	for n != &l.head {
		next := n.next
		fn(n)
		n = next
	}
}
