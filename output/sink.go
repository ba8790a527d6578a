package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is where rendered text goes. Each call is one logical message; the
// arguments are joined with single spaces.
type Logger func(args ...any)

// NewLogger returns a Logger that writes each message as one line to w,
// flushing after every call.
func NewLogger(w io.Writer) Logger {
	var mu sync.Mutex
	bw := bufio.NewWriter(w)
	return func(args ...any) {
		mu.Lock()
		defer mu.Unlock()
		// Fprintln separates every operand with a space, strings included.
		fmt.Fprintln(bw, args...)
		bw.Flush()
	}
}

// Stdout returns the default Logger, writing to standard output.
func Stdout() Logger {
	return NewLogger(os.Stdout)
}

// Lines returns a Logger that appends each message to *dst. Handy for
// embedding the reporter where output is consumed programmatically.
func Lines(dst *[]string) Logger {
	var mu sync.Mutex
	return func(args ...any) {
		mu.Lock()
		defer mu.Unlock()
		line := fmt.Sprintln(args...)
		*dst = append(*dst, line[:len(line)-1])
	}
}
