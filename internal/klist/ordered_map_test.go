package klist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedMapInOrder(t *testing.T) {
	m := NewOrderedMap[int, string]()
	for _, k := range []int{5, 1, 9, 3, 7, 2} {
		m.Insert(k, "")
	}

	var got []int
	m.InOrder(func(k int, _ string) bool {
		got = append(got, k)
		return true
	})

	assert.Equal(t, []int{1, 2, 3, 5, 7, 9}, got)
	assert.Equal(t, 6, m.Len())
}

func TestOrderedMapDelete(t *testing.T) {
	m := NewOrderedMap[int, int]()
	m.Insert(1, 100)
	m.Insert(2, 200)

	assert.True(t, m.Delete(1))
	assert.False(t, m.Delete(1))

	_, ok := m.Get(1)
	assert.False(t, ok)

	v, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, 200, v)
	assert.Equal(t, 1, m.Len())
}

func TestOrderedMapMin(t *testing.T) {
	m := NewOrderedMap[int, bool]()
	_, _, ok := m.Min()
	assert.False(t, ok)

	m.Insert(42, true)
	m.Insert(3, true)
	k, _, ok := m.Min()
	assert.True(t, ok)
	assert.Equal(t, 3, k)
}

func TestListPushRemove(t *testing.T) {
	l := New()
	var a, b Node
	l.PushBack(&a, "a")
	l.PushBack(&b, "b")
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "a", l.Front())

	Remove(&a)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "b", l.Front())
	assert.False(t, a.InList())
}
