// Copyright (c) 2016 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package storage

import "bytes"

// redBlackTree is an ordered map from byte keys to byte values.
type redBlackTree struct {
	root *redBlackNode
	size int
}

type redBlackNode struct {
	key   []byte
	value []byte
	left  *redBlackNode
	right *redBlackNode
	red   bool
}

// Size returns the number of keys in the tree.
func (t *redBlackTree) Size() int {
	return t.size
}

// Child returns the left or right child of the node.
func (n *redBlackNode) Child(right bool) *redBlackNode {
	if right {
		return n.right
	}
	return n.left
}

func (n *redBlackNode) setChild(right bool, node *redBlackNode) {
	if right {
		n.right = node
	} else {
		n.left = node
	}
}

func isRed(node *redBlackNode) bool {
	return node != nil && node.red
}

func singleRotate(oldroot *redBlackNode, dir bool) *redBlackNode {
	newroot := oldroot.Child(!dir)

	oldroot.setChild(!dir, newroot.Child(dir))
	newroot.setChild(dir, oldroot)

	oldroot.red = true
	newroot.red = false

	return newroot
}

func doubleRotate(root *redBlackNode, dir bool) *redBlackNode {
	root.setChild(!dir, singleRotate(root.Child(!dir), !dir))
	return singleRotate(root, dir)
}

// Put stores value under key, replacing the value of an existing key.
// Returns true when the key was not in the tree before.
func (t *redBlackTree) Put(key, value []byte) (inserted bool) {
	if t.root == nil {
		t.root = &redBlackNode{key: key, value: value}
		inserted = true
	} else {
		var head = &redBlackNode{}

		var dir = true
		var last = true

		var parent *redBlackNode
		var gparent *redBlackNode
		var ggparent = head
		var node = t.root

		ggparent.right = t.root

		for {
			if node == nil {
				node = &redBlackNode{key: key, value: value, red: true}
				parent.setChild(dir, node)
				inserted = true
			} else if isRed(node.left) && isRed(node.right) {
				node.red = true
				node.left.red, node.right.red = false, false
			}

			if isRed(node) && isRed(parent) {
				dir2 := ggparent.right == gparent

				if node == parent.Child(last) {
					ggparent.setChild(dir2, singleRotate(gparent, !last))
				} else {
					ggparent.setChild(dir2, doubleRotate(gparent, !last))
				}
			}

			cmp := bytes.Compare(node.key, key)
			if cmp == 0 {
				node.value = value
				break
			}

			last = dir
			dir = cmp < 0

			if gparent != nil {
				ggparent = gparent
			}
			gparent = parent
			parent = node

			node = node.Child(dir)
		}

		t.root = head.right
	}

	t.root.red = false

	if inserted {
		t.size++
	}

	return inserted
}

// Delete removes key from the tree. Returns false when the key was absent.
func (t *redBlackTree) Delete(key []byte) bool {
	if t.root == nil {
		return false
	}

	var head = &redBlackNode{red: true}
	var node = head
	var parent *redBlackNode
	var gparent *redBlackNode
	var found *redBlackNode

	var dir = true

	node.right = t.root

	for node.Child(dir) != nil {
		last := dir

		gparent = parent
		parent = node
		node = node.Child(dir)

		cmp := bytes.Compare(node.key, key)
		dir = cmp < 0

		if cmp == 0 {
			found = node
		}

		// push a red node down
		if !isRed(node) && !isRed(node.Child(dir)) {
			if isRed(node.Child(!dir)) {
				sr := singleRotate(node, dir)
				parent.setChild(last, sr)
				parent = sr
			} else {
				sibling := parent.Child(!last)
				if sibling != nil {
					if !isRed(sibling.Child(!last)) && !isRed(sibling.Child(last)) {
						parent.red = false
						sibling.red, node.red = true, true
					} else {
						dir2 := gparent.right == parent

						if isRed(sibling.Child(last)) {
							gparent.setChild(dir2, doubleRotate(parent, last))
						} else if isRed(sibling.Child(!last)) {
							gparent.setChild(dir2, singleRotate(parent, last))
						}

						gpc := gparent.Child(dir2)
						gpc.red = true
						node.red = true
						gpc.left.red, gpc.right.red = false, false
					}
				}
			}
		}
	}

	if found != nil {
		found.key = node.key
		found.value = node.value
		parent.setChild(parent.right == node, node.Child(node.left == nil))
		t.size--
	}

	t.root = head.right
	if t.root != nil {
		t.root.red = false
	}

	return found != nil
}

// Get returns the value stored under key.
func (t *redBlackTree) Get(key []byte) ([]byte, bool) {
	node := t.root
	for node != nil {
		cmp := bytes.Compare(key, node.key)
		if cmp == 0 {
			return node.value, true
		}
		node = node.Child(cmp > 0)
	}
	return nil, false
}

// Walk visits the keys in [from, to) in ascending order until visit returns
// false. A nil to walks to the end of the tree. Returns false when visit
// stopped the walk.
func (t *redBlackTree) Walk(from, to []byte, visit func(key, value []byte) bool) bool {
	return walkFrom(t.root, from, to, visit)
}

func walkFrom(node *redBlackNode, from, to []byte, visit func(key, value []byte) bool) bool {
	if node == nil {
		return true
	}

	// skip the left branch when all its keys are smaller than from
	above := bytes.Compare(node.key, from) >= 0
	if above && !walkFrom(node.left, from, to, visit) {
		return false
	}

	if to != nil && bytes.Compare(node.key, to) >= 0 {
		return true
	}

	if above && !visit(node.key, node.value) {
		return false
	}

	return walkFrom(node.right, from, to, visit)
}
