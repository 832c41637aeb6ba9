package dataset

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// NextNumber scans folder once and returns one more than the highest N among
// files named prefix+N+".jpg". The extension match ignores case. It returns 1
// when nothing matches or the folder does not exist.
func NextNumber(folder, prefix string) (int, error) {
	entries, err := os.ReadDir(folder)
	if errors.Is(err, os.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, ok := parseSuffix(entry.Name(), prefix); ok && n > highest {
			highest = n
		}
	}

	return highest + 1, nil
}

// parseSuffix extracts N from prefix+N+".jpg"
func parseSuffix(name, prefix string) (int, bool) {
	if len(name) < len(prefix)+len(".jpg")+1 || !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	ext := name[len(name)-4:]
	if !strings.EqualFold(ext, ".jpg") {
		return 0, false
	}

	digits := name[len(prefix) : len(name)-4]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Allocator tracks the next suffix for each class during one run. The folder
// of a class is scanned the first time the class is requested; later calls
// use the cached counter.
type Allocator struct {
	root string
	next map[string]int
}

// NewAllocator creates an allocator for class folders under root
func NewAllocator(root string) *Allocator {
	return &Allocator{root: root, next: make(map[string]int)}
}

// Peek returns the suffix the next save of class will use without reserving it
func (a *Allocator) Peek(c Class) (int, error) {
	if n, ok := a.next[c.Label]; ok {
		return n, nil
	}

	n, err := NextNumber(c.Dir(a.root), c.Prefix)
	if err != nil {
		return 0, err
	}
	a.next[c.Label] = n
	return n, nil
}

// Commit advances the counter of class past the peeked suffix
func (a *Allocator) Commit(c Class) {
	if _, ok := a.next[c.Label]; !ok {
		return
	}
	a.next[c.Label]++
}

