package strpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcc-lang/rcc/internal/strpool"
)

func TestStringsIntern(t *testing.T) {
	p := strpool.NewStrings()
	a := p.Intern("hello")
	b := p.Intern("world")
	c := p.Intern("hello")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "hello", p.String(a))
	assert.Equal(t, "world", p.String(b))
	assert.Equal(t, []string{"hello", "world"}, p.All())
}

func TestArraysPush(t *testing.T) {
	p := strpool.NewArrays()
	h := p.Alloc()
	p.Push(h, 1)
	p.Push(h, 2)
	p.Push(h, 3)
	assert.Equal(t, 3, p.Len(h))
	assert.Equal(t, []int{1, 2, 3}, p.Values(h))
}
