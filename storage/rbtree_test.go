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

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeTree() redBlackTree {
	tree := redBlackTree{}

	for i := 1; i <= 8; i++ {
		key := []byte(strconv.Itoa(i))
		tree.Put(key, key)
	}

	//               4,B
	//             /     \
	//         2,R         6,R
	//       /     \     /     \
	//     1,B    3,B   5,B    7,B
	//                             \
	//                              8,R

	return tree
}

// counts the black height of the tree and validates it along the way
func validateRedBlackTree(n *redBlackNode) (int, error) {
	if n == nil {
		return 1, nil
	}

	if isRed(n) && (isRed(n.left) || isRed(n.right)) {
		return 0, fmt.Errorf("red violation at node key %q", n.key)
	}

	leftHeight, err := validateRedBlackTree(n.left)
	if err != nil {
		return 0, err
	}
	rightHeight, err := validateRedBlackTree(n.right)
	if err != nil {
		return 0, err
	}

	if n.left != nil && string(n.left.key) >= string(n.key) ||
		n.right != nil && string(n.right.key) <= string(n.key) {
		return 0, fmt.Errorf("binary tree violation at node key %q", n.key)
	}

	if leftHeight != rightHeight {
		return 0, errors.New("black height violation at node key " + string(n.key))
	}
	if isRed(n) {
		return leftHeight, nil
	}
	return leftHeight + 1, nil
}

func keys(tree *redBlackTree, from, to []byte) []string {
	var visited []string
	tree.Walk(from, to, func(key, value []byte) bool {
		visited = append(visited, string(key))
		return true
	})
	return visited
}

func TestEmptyTree(t *testing.T) {
	tree := redBlackTree{}

	assert.Nil(t, tree.root, "tree root is nil")
	assert.Equal(t, 0, tree.Size(), "tree has 0 nodes")
	assert.False(t, tree.Delete([]byte("a")), "expected nothing to delete")
	assert.Empty(t, keys(&tree, nil, nil))
}

func TestPut(t *testing.T) {
	tree := makeTree()

	height, err := validateRedBlackTree(tree.root)
	assert.NoError(t, err, "expected tree to be a valid red black tree")
	assert.Equal(t, 3, height, "expected tree to have black height of 3")
	assert.Equal(t, 8, tree.Size(), "expected tree to have 8 nodes")

	assert.Equal(t, "4", string(tree.root.key))
	assert.False(t, tree.root.red)
	assert.Equal(t, "2", string(tree.root.left.key))
	assert.True(t, tree.root.left.red)
	assert.Equal(t, "8", string(tree.root.right.right.right.key))
}

func TestDuplicatePut(t *testing.T) {
	tree := makeTree()

	assert.False(t, tree.Put([]byte("3"), []byte("three")), "expected duplicate put to replace")
	assert.Equal(t, 8, tree.Size())

	value, ok := tree.Get([]byte("3"))
	assert.True(t, ok)
	assert.Equal(t, "three", string(value))
}

func TestDelete(t *testing.T) {
	tree := makeTree()

	assert.True(t, tree.Delete([]byte("4")))
	assert.False(t, tree.Delete([]byte("4")))
	assert.Equal(t, 7, tree.Size())

	_, err := validateRedBlackTree(tree.root)
	assert.NoError(t, err)

	_, ok := tree.Get([]byte("4"))
	assert.False(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "5", "6", "7", "8"}, keys(&tree, nil, nil))
}

func TestWalkRange(t *testing.T) {
	tree := makeTree()

	assert.Equal(t, []string{"3", "4", "5"}, keys(&tree, []byte("3"), []byte("6")))
	assert.Equal(t, []string{"7", "8"}, keys(&tree, []byte("7"), nil))
	assert.Empty(t, keys(&tree, []byte("9"), nil))

	var visited []string
	completed := tree.Walk(nil, nil, func(key, value []byte) bool {
		visited = append(visited, string(key))
		return len(visited) < 2
	})
	assert.False(t, completed, "expected walk to be stopped")
	assert.Equal(t, []string{"1", "2"}, visited)
}

func TestRandomPutDelete(t *testing.T) {
	tree := redBlackTree{}
	r := rand.New(rand.NewSource(1))
	expected := make(map[string]bool)

	for i := 0; i < 2000; i++ {
		key := strconv.Itoa(r.Intn(500))
		if r.Intn(3) == 0 {
			assert.Equal(t, expected[key], tree.Delete([]byte(key)), "delete of %s", key)
			delete(expected, key)
		} else {
			assert.Equal(t, !expected[key], tree.Put([]byte(key), []byte(key)), "put of %s", key)
			expected[key] = true
		}
	}

	_, err := validateRedBlackTree(tree.root)
	assert.NoError(t, err, "expected tree to stay balanced")
	assert.Equal(t, len(expected), tree.Size())

	sorted := make([]string, 0, len(expected))
	for key := range expected {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)
	assert.Equal(t, sorted, keys(&tree, nil, nil))
}
