// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathTrieInsertLookup(t *testing.T) {
	trie := newPathTrie()
	entry := &EntryInfo{UncompressedSize: 42}

	assert.True(t, trie.Insert("a/b/c", entry))

	node := trie.Lookup("a/b/c")
	require.NotNil(t, node)
	got, ok := node.Entry()
	require.True(t, ok)
	assert.Equal(t, uint32(42), got.UncompressedSize)

	dir := trie.Lookup("a/b")
	require.NotNil(t, dir)
	assert.False(t, dir.IsFile())
}

func TestPathTrieNormalizesPath(t *testing.T) {
	trie := newPathTrie()
	entry := &EntryInfo{UncompressedSize: 7}

	trie.Insert("/a//b/./c", entry)

	node := trie.Lookup("a/b/c")
	require.NotNil(t, node)
	assert.True(t, node.IsFile())

	same := trie.Lookup("///a/b///c/.")
	assert.Same(t, node, same)
}

func TestPathTrieInsertReplacesEntry(t *testing.T) {
	trie := newPathTrie()
	trie.Insert("x", &EntryInfo{UncompressedSize: 1})
	trie.Insert("x", &EntryInfo{UncompressedSize: 2})

	node := trie.Lookup("x")
	require.NotNil(t, node)
	got, _ := node.Entry()
	assert.Equal(t, uint32(2), got.UncompressedSize)
}

func TestPathTrieInsertIdempotent(t *testing.T) {
	trie := newPathTrie()
	entry := &EntryInfo{UncompressedSize: 9}
	trie.Insert("x/y", entry)
	trie.Insert("x/y", entry)

	node := trie.Lookup("x/y")
	require.NotNil(t, node)
	got, _ := node.Entry()
	assert.Equal(t, uint32(9), got.UncompressedSize)
}

func TestPathTrieRemove(t *testing.T) {
	trie := newPathTrie()
	trie.Insert("a/b", &EntryInfo{})

	assert.True(t, trie.Remove("a/b"))
	assert.Nil(t, trie.Lookup("a/b"))
	assert.NotNil(t, trie.Lookup("a"))

	assert.False(t, trie.Remove("a/b"))
	assert.False(t, trie.Remove(""))
}

func TestPathTrieLookupEmptyReturnsRoot(t *testing.T) {
	trie := newPathTrie()
	assert.Same(t, trie.Root(), trie.Lookup(""))
}

func TestPathTrieLookupMissingReturnsNil(t *testing.T) {
	trie := newPathTrie()
	assert.Nil(t, trie.Lookup("nope"))
}

func TestPathTrieTraverseVisitsEveryNodeOnce(t *testing.T) {
	trie := newPathTrie()
	trie.Insert("dir/a.txt", &EntryInfo{})
	trie.Insert("dir/sub/b.txt", &EntryInfo{})
	trie.Insert("dir/sub/c.txt", &EntryInfo{})

	visited := make(map[string]bool)
	trie.Traverse("dir", func(fullPath string, node *TrieNode) {
		visited[fullPath] = true
	})

	assert.True(t, visited["dir"])
	assert.True(t, visited["dir/a.txt"])
	assert.True(t, visited["dir/sub"])
	assert.True(t, visited["dir/sub/b.txt"])
	assert.True(t, visited["dir/sub/c.txt"])
	assert.Len(t, visited, 5)
}

func TestPathTrieEmptyDirectoriesRepresentable(t *testing.T) {
	trie := newPathTrie()
	trie.Insert("empty/dir", nil)

	node := trie.Lookup("empty/dir")
	require.NotNil(t, node)
	assert.False(t, node.IsFile())
	assert.Empty(t, node.Children())
}
