// Package seed - встроенный демонстрационный набор данных.
// Им инициализируется стор, когда снапшота нет или он не подходит.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

//go:embed seed.json
var raw []byte

// Collections разбирает набор заново при каждом вызове, так что вызывающий
// получает собственную копию.
func Collections() store.Collections {
	var c store.Collections
	if err := json.Unmarshal(raw, &c); err != nil {
		panic(fmt.Errorf("встроенный seed повреждён: %w", err))
	}
	return c
}

func State() store.State {
	return store.State{Collections: Collections()}
}
