package livebind

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/livefir/livebind/internal/dom"
)

// ItemTemplate renders one list item.
type ItemTemplate[T any] func(item T, index int) (*TemplateResult, error)

// KeyFunc returns the stable identity of a list item.
type KeyFunc[T any, K comparable] func(item T) K

// Repeat renders items with positional reuse: the i-th item always updates
// the i-th item range of the previous render.
func Repeat[T any](items []T, tmpl ItemTemplate[T]) Directive {
	return RepeatSeq(slices.Values(items), tmpl)
}

// RepeatSeq is Repeat over an iterator.
func RepeatSeq[T any](items iter.Seq[T], tmpl ItemTemplate[T]) Directive {
	return &repeatDirective[T, int]{items: items, tmpl: tmpl}
}

// RepeatKeyed renders items reusing the range previously rendered for the
// same key, moving ranges when the order changes.
func RepeatKeyed[T any, K comparable](items []T, key KeyFunc[T, K], tmpl ItemTemplate[T]) Directive {
	return RepeatKeyedSeq(slices.Values(items), key, tmpl)
}

// RepeatKeyedSeq is RepeatKeyed over an iterator.
func RepeatKeyedSeq[T any, K comparable](items iter.Seq[T], key KeyFunc[T, K], tmpl ItemTemplate[T]) Directive {
	return &repeatDirective[T, K]{items: items, key: key, tmpl: tmpl}
}

// repeatState is the reconciliation state of a NodePart bound to a repeat.
type repeatState struct {
	keyed  bool
	keyMap map[any]*NodePart
	items  []repeatItem
}

type repeatItem struct {
	part *NodePart
	key  any
}

// repeatEntry is one successfully evaluated item of the current render.
type repeatEntry struct {
	key    any
	result *TemplateResult
}

type repeatDirective[T any, K comparable] struct {
	items iter.Seq[T]
	key   KeyFunc[T, K]
	tmpl  ItemTemplate[T]
}

func (d *repeatDirective[T, K]) Resolve(part Part) (any, error) {
	p, ok := part.(*NodePart)
	if !ok {
		return nil, newRepeatTargetError(part)
	}

	var entries []repeatEntry
	index := -1
	for item := range d.items {
		index++
		entry, err := d.evaluate(item, index)
		if err != nil {
			p.config.Metrics.IncrementItemError()
			p.config.Logger.Error("skipping list item",
				zap.Int("index", index),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return NoChange, p.reconcile(entries, d.key != nil)
}

// evaluate runs the item callbacks, turning a panic into an error so one bad
// item cannot abort the list.
func (d *repeatDirective[T, K]) evaluate(item T, index int) (entry repeatEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item %d panicked: %v", index, r)
		}
	}()

	result, err := d.tmpl(item, index)
	if err != nil {
		return repeatEntry{}, err
	}
	entry.result = result
	if d.key != nil {
		entry.key = d.key(item)
	} else {
		entry.key = index
	}
	return entry, nil
}

// reconcile makes the part's range show one item range per entry, in order,
// reusing the ranges of the previous render where possible.
func (p *NodePart) reconcile(entries []repeatEntry, keyed bool) error {
	state := p.repeat
	if state == nil || state.keyed != keyed {
		p.Clear()
		state = &repeatState{keyed: keyed, keyMap: make(map[any]*NodePart)}
	}
	// Recorded on every render so a pending future bound in between is stale.
	p.repeat = state
	p.value = state
	m := p.config.Metrics

	// Pick the part each entry reuses. A key only matches once per render;
	// later duplicates get fresh parts.
	previous := state.items
	reuse := make([]*NodePart, len(entries))
	used := make(map[*NodePart]bool, len(previous))
	for i, e := range entries {
		var candidate *NodePart
		if keyed {
			candidate = state.keyMap[e.key]
		} else if i < len(previous) {
			candidate = previous[i].part
		}
		if candidate != nil && !used[candidate] {
			reuse[i] = candidate
			used[candidate] = true
		}
	}

	// Drop ranges nothing reuses before placing the rest, so they never sit
	// between the cursor and a part that is already in place.
	position := make(map[*NodePart]int, len(previous))
	for i, it := range previous {
		position[it.part] = i
		if used[it.part] {
			continue
		}
		dom.RemoveInclusive(it.part.start, it.part.end)
		if keyed && state.keyMap[it.key] == it.part {
			delete(state.keyMap, it.key)
		}
		m.IncrementPartRemoved()
	}

	stable := stableEntries(reuse, position)

	var errs []error
	items := make([]repeatItem, 0, len(entries))
	cursor := p.start
	for i, e := range entries {
		itemPart := reuse[i]
		switch {
		case itemPart == nil:
			start, end := dom.NewMarker(), dom.NewMarker()
			dom.InsertAfter(cursor, start)
			dom.InsertAfter(start, end)
			itemPart = p.child(start, end)
			m.IncrementPartCreated()
		case stable[i]:
			// already in order relative to the other stable parts
		case cursor.NextSibling != itemPart.start:
			dom.MoveAfter(itemPart.start, itemPart.end, cursor)
			m.IncrementPartMoved()
		}

		if keyed {
			state.keyMap[e.key] = itemPart
		}
		if err := itemPart.SetValue(e.result); err != nil {
			errs = append(errs, fmt.Errorf("list item %v: %w", e.key, err))
		}
		items = append(items, repeatItem{part: itemPart, key: e.key})
		cursor = itemPart.end
	}

	state.items = items
	return errors.Join(errs...)
}

// stableEntries marks the reused entries that can stay where they are: the
// longest run of reused parts whose previous positions are already increasing.
func stableEntries(reuse []*NodePart, position map[*NodePart]int) []bool {
	stable := make([]bool, len(reuse))

	var seq, entry []int
	for i, part := range reuse {
		if part != nil {
			seq = append(seq, position[part])
			entry = append(entry, i)
		}
	}
	for _, k := range longestIncreasing(seq) {
		stable[entry[k]] = true
	}
	return stable
}

// longestIncreasing returns the indices of a longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[l] is the index in seq of the smallest tail of an increasing run
	// of length l+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	run := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i, k = i-1, prev[k] {
		run[i] = k
	}
	return run
}
