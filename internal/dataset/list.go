package dataset

// listNode is an arena-free doubly-linked node: next is the owning pointer,
// prev a non-owning back-reference, per the teacher-note in spec.md §9 on
// modeling cyclic ownership.
type listNode struct {
	value      []byte
	next, prev *listNode
}

// List is an ordered sequence of byte-string elements with O(1) push/pop at
// either end.
//
// Invariants (spec.md §3): length == 0 iff head == tail == nil; head.prev ==
// nil; tail.next == nil; forward traversal from head and backward traversal
// from tail each visit exactly length nodes.
type List struct {
	head, tail *listNode
	length     uint64
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// Len returns the number of elements.
func (l *List) Len() uint64 {
	return l.length
}

// LPush inserts values at the head as one block that keeps argument order, so
// the first argument ends up at the head: `LPUSH k a b c` leaves the list
// `a b c ...`.
func (l *List) LPush(values ...[]byte) {
	for i := len(values) - 1; i >= 0; i-- {
		node := &listNode{value: cloneBytes(values[i])}

		node.next = l.head
		if l.head != nil {
			l.head.prev = node
		}

		l.head = node

		if l.tail == nil {
			l.tail = node
		}

		l.length++
	}
}

// RPush inserts values at the tail, in argument order.
func (l *List) RPush(values ...[]byte) {
	for _, v := range values {
		node := &listNode{value: cloneBytes(v)}

		node.prev = l.tail
		if l.tail != nil {
			l.tail.next = node
		}

		l.tail = node

		if l.head == nil {
			l.head = node
		}

		l.length++
	}
}

// LPop removes up to n elements from the head and returns them in the order
// they appeared (original head-to-tail order of the removed prefix). n is
// clamped to [0, length].
func (l *List) LPop(n uint64) [][]byte {
	n = min(n, l.length)

	out := make([][]byte, 0, n)

	for range n {
		node := l.head
		out = append(out, node.value)
		l.head = node.next

		if l.head != nil {
			l.head.prev = nil
		} else {
			l.tail = nil
		}

		l.length--
	}

	return out
}

// RPop removes up to n elements from the tail. Per spec.md §4.2, the returned
// list reads tail-first: the first popped element (the original tail) comes
// first, the last popped element (deeper into the list) comes last.
func (l *List) RPop(n uint64) [][]byte {
	n = min(n, l.length)

	out := make([][]byte, 0, n)

	for range n {
		node := l.tail
		out = append(out, node.value)
		l.tail = node.prev

		if l.tail != nil {
			l.tail.next = nil
		} else {
			l.head = nil
		}

		l.length--
	}

	return out
}

// LRange returns a fresh copy of the elements at ranks [start, stop]
// inclusive. start and stop are unsigned rank indices; stop clamps to
// length-1. If start > stop, or the list is empty, returns an empty slice.
// Traversal enters from whichever end keeps the walk short (spec.md §4.2).
func (l *List) LRange(start, stop uint64) [][]byte {
	if l.length == 0 || start > stop {
		return [][]byte{}
	}

	if stop >= l.length {
		stop = l.length - 1
	}

	if start > stop {
		return [][]byte{}
	}

	count := stop - start + 1
	out := make([][]byte, 0, count)

	if start > l.length/2 {
		node := l.tail

		for i := l.length - 1; i > stop; i-- {
			node = node.prev
		}

		for range count {
			out = append(out, node.value)
			node = node.prev
		}

		// Collected tail-first; reverse to head-first output order.
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	} else {
		node := l.head

		for i := uint64(0); i < start; i++ {
			node = node.next
		}

		for range count {
			out = append(out, node.value)
			node = node.next
		}
	}

	result := make([][]byte, len(out))
	for i, v := range out {
		result[i] = cloneBytes(v)
	}

	return result
}

// MemoryUsage approximates bytes owned by the list: per-node overhead plus
// element bytes.
func (l *List) MemoryUsage() uint64 {
	const nodeOverhead = 32

	var usage uint64

	for node := l.head; node != nil; node = node.next {
		usage += nodeOverhead + uint64(len(node.value))
	}

	return usage
}
