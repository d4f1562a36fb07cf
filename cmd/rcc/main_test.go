package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPathFor(t *testing.T) {
	assert.Equal(t, "src/a.s", outputPathFor("src/a.c", ""))
	assert.Equal(t, "out/a.s", outputPathFor("src/a.c", "out"))
	assert.Equal(t, "b.s", outputPathFor("b.c", ""))
}

func TestBracketed(t *testing.T) {
	assert.Equal(t, "[TRACE]", bracketed("TRACE"))
}
