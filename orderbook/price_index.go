package orderbook

type color uint8

const (
	red   color = 0
	black color = 1
)

type pnode struct {
	price  int64
	slot   int
	color  color
	left   *pnode
	right  *pnode
	parent *pnode
}

// priceIndex is a sorted price -> slot mapping backed by a red-black
// tree with a shared black sentinel. A price, once inserted, is never
// removed: the slot it maps to stays valid for the life of the book
// even after its queue drains. Matching relies on ascend/descend for
// best-price-first iteration.
type priceIndex struct {
	root *pnode
	nil_ *pnode
	size int
}

func newPriceIndex() *priceIndex {
	s := &pnode{color: black}
	return &priceIndex{root: s, nil_: s}
}

func (t *priceIndex) len() int { return t.size }

func (t *priceIndex) get(price int64) (int, bool) {
	n := t.root
	for n != t.nil_ {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n.slot, true
		}
	}
	return 0, false
}

// insert records price -> slot. The price must not already be present;
// callers check with get first.
func (t *priceIndex) insert(price int64, slot int) {
	y := t.nil_
	x := t.root
	for x != t.nil_ {
		y = x
		if price < x.price {
			x = x.left
		} else {
			x = x.right
		}
	}
	z := &pnode{price: price, slot: slot, color: red, left: t.nil_, right: t.nil_, parent: y}
	if y == t.nil_ {
		t.root = z
	} else if z.price < y.price {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
}

// ascend visits entries in increasing price order until fn returns
// false.
func (t *priceIndex) ascend(fn func(price int64, slot int) bool) {
	for n := t.minNode(t.root); n != t.nil_; n = t.next(n) {
		if !fn(n.price, n.slot) {
			return
		}
	}
}

// descend visits entries in decreasing price order until fn returns
// false.
func (t *priceIndex) descend(fn func(price int64, slot int) bool) {
	for n := t.maxNode(t.root); n != t.nil_; n = t.prev(n) {
		if !fn(n.price, n.slot) {
			return
		}
	}
}

func (t *priceIndex) minNode(n *pnode) *pnode {
	if n == t.nil_ {
		return t.nil_
	}
	for n.left != t.nil_ {
		n = n.left
	}
	return n
}

func (t *priceIndex) maxNode(n *pnode) *pnode {
	if n == t.nil_ {
		return t.nil_
	}
	for n.right != t.nil_ {
		n = n.right
	}
	return n
}

func (t *priceIndex) next(n *pnode) *pnode {
	if n == t.nil_ {
		return t.nil_
	}
	if n.right != t.nil_ {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil_ && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *priceIndex) prev(n *pnode) *pnode {
	if n == t.nil_ {
		return t.nil_
	}
	if n.left != t.nil_ {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.nil_ && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func (t *priceIndex) leftRotate(x *pnode) {
	y := x.right
	x.right = y.left
	if y.left != t.nil_ {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil_ {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *priceIndex) rightRotate(y *pnode) {
	x := y.left
	y.left = x.right
	if x.right != t.nil_ {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil_ {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *priceIndex) insertFixup(z *pnode) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}
