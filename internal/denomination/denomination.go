// Package denomination is the legal-tender catalog used when a cashier counts
// the drawer at shift close. The catalog is built once at package load and is
// read-only afterwards.
package denomination

import (
	"fmt"
	"sort"

	"cashdesk-backend/internal/money"
)

type Kind string

const (
	KindBill Kind = "bill"
	KindCoin Kind = "coin"
)

type Denomination struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Value money.Money `json:"value"`
	Kind  Kind        `json:"kind"`
}

// Soles (S/), highest face value first.
var catalog = []Denomination{
	{Key: "b200", Label: "S/ 200", Value: money.MustParse("200"), Kind: KindBill},
	{Key: "b100", Label: "S/ 100", Value: money.MustParse("100"), Kind: KindBill},
	{Key: "b50", Label: "S/ 50", Value: money.MustParse("50"), Kind: KindBill},
	{Key: "b20", Label: "S/ 20", Value: money.MustParse("20"), Kind: KindBill},
	{Key: "b10", Label: "S/ 10", Value: money.MustParse("10"), Kind: KindBill},
	{Key: "c5", Label: "S/ 5", Value: money.MustParse("5"), Kind: KindCoin},
	{Key: "c2", Label: "S/ 2", Value: money.MustParse("2"), Kind: KindCoin},
	{Key: "c1", Label: "S/ 1", Value: money.MustParse("1"), Kind: KindCoin},
	{Key: "c0_50", Label: "S/ 0.50", Value: money.MustParse("0.50"), Kind: KindCoin},
	{Key: "c0_20", Label: "S/ 0.20", Value: money.MustParse("0.20"), Kind: KindCoin},
	{Key: "c0_10", Label: "S/ 0.10", Value: money.MustParse("0.10"), Kind: KindCoin},
}

var byKey = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, d := range catalog {
		idx[d.Key] = i
	}
	return idx
}()

// All returns a copy of the catalog in display order.
func All() []Denomination {
	out := make([]Denomination, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(key string) (Denomination, bool) {
	i, ok := byKey[key]
	if !ok {
		return Denomination{}, false
	}
	return catalog[i], true
}

// MaxCount is the most pieces of one denomination a drawer count may report.
const MaxCount = 1_000_000

// Count maps a denomination key to how many pieces were counted.
type Count map[string]int64

// Validate rejects unknown keys and counts outside 0..MaxCount. Keys are
// checked in sorted order so the reported key is deterministic.
func (c Count) Validate() error {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := byKey[k]; !ok {
			return fmt.Errorf("unknown denomination %q", k)
		}
		if c[k] < 0 {
			return fmt.Errorf("negative count for denomination %q", k)
		}
		if c[k] > MaxCount {
			return fmt.Errorf("count for denomination %q exceeds %d", k, MaxCount)
		}
	}
	return nil
}

type Line struct {
	Denomination
	Count    int64       `json:"count"`
	Subtotal money.Money `json:"subtotal"`
}

// Lines returns the non-zero rows of the count in catalog order. The count
// must have passed Validate, which keeps every subtotal in range.
func (c Count) Lines() []Line {
	lines := make([]Line, 0, len(c))
	for _, d := range catalog {
		n := c[d.Key]
		if n == 0 {
			continue
		}
		sub, _ := d.Value.MulInt(n)
		lines = append(lines, Line{
			Denomination: d,
			Count:        n,
			Subtotal:     sub,
		})
	}
	return lines
}
