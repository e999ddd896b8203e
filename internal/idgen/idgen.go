// Package idgen выдаёт человекочитаемые ID вида PREFIX-0001.
//
// Счётчик монотонный для каждого префикса и продолжается после уже
// существующих ID, поэтому повторов не бывает.
package idgen

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const minWidth = 4

type Generator struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func New() *Generator {
	return &Generator{counters: make(map[string]uint64)}
}

// Next возвращает следующий ID для префикса
func (g *Generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[prefix]++
	return fmt.Sprintf("%s-%0*d", prefix, minWidth, g.counters[prefix])
}

// Observe сдвигает счётчик за уже занятый ID, чтобы Next его не повторил.
// ID без числового хвоста игнорируются.
func (g *Generator) Observe(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range ids {
		prefix, n, ok := Split(id)
		if !ok {
			continue
		}
		if n > g.counters[prefix] {
			g.counters[prefix] = n
		}
	}
}

// Split разбирает "OSM-1234" на префикс и номер
func Split(id string) (string, uint64, bool) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return id[:i], n, true
}
