package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	assert.Equal(t, "short", Tail("  short  ", 10))
	assert.Equal(t, "…6789", Tail("0123456789", 4))
	assert.Equal(t, "abc", Tail("abc", 0))

	// Never split a multi-byte rune.
	got := Tail("ééé", 3)
	assert.Equal(t, "…é", got)
}

func TestExpand(t *testing.T) {
	vars := map[string]string{"file": "/tmp/shot.png", "text": "hello {file}"}

	assert.Equal(t, "/tmp/shot.png", Expand("{file}", vars))
	assert.Equal(t, "--out=/tmp/shot.png", Expand("--out={file}", vars))
	assert.Equal(t, "hello {file}", Expand("{text}", vars), "substituted values must not be expanded again")
	assert.Equal(t, "{unknown}", Expand("{unknown}", vars))
	assert.Equal(t, "open {brace", Expand("open {brace", vars))
	assert.Equal(t, "plain", Expand("plain", vars))
}

func TestExpandPlaceholders(t *testing.T) {
	args := []string{"-m", "output", "-o", "{dir}", "-f", "{base}"}
	got := ExpandPlaceholders(args, map[string]string{"dir": "/tmp/x", "base": "a.png"})
	assert.Equal(t, []string{"-m", "output", "-o", "/tmp/x", "-f", "a.png"}, got)
	assert.Equal(t, "{dir}", args[3], "input must not be mutated")
}
