package reporter

import (
	"strings"

	"github.com/ansel1/spectang/results"
)

// Level returns the indentation, in columns, for a node: two columns per
// level below the root. Empty path segments do not count.
func Level(node results.Node) int {
	n := 0
	for _, p := range node.FullPath {
		if p != "" {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return (n - 1) * 2
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Pad prefixes every line of s with n spaces. Lines may end in \n, \r\n or
// \r; the result always uses \n.
func Pad(n int, s string) string {
	if n < 0 {
		n = 0
	}
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(newlines.Replace(s), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// Plural appends an "s" to word when n is greater than one.
func Plural(n int, word string) string {
	if n > 1 {
		return word + "s"
	}
	return word
}
