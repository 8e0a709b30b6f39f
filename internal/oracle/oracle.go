// Package oracle is a dead-simple, dependency-free reference model of the
// string/list/sorted-set verbs, mirroring the teacher's internal/spec
// "in-memory oracle for observable semantics" approach: property tests run
// the same operation against the oracle and the real dataset and compare
// observable results, rather than asserting against hand-picked expectations
// for every generated sequence.
//
// The oracle trades performance for obviousness: lists are Go slices,
// sorted sets are plain maps that are fully re-sorted on every read. Nothing here
// needs to be fast, only unmistakably correct.
package oracle

import "sort"

type kind int

const (
	kindNone kind = iota
	kindString
	kindList
	kindSortedSet
)

type zmember struct {
	member string
	score  float64
}

type entry struct {
	kind kind
	str  string
	list []string
	zset map[string]float64
}

// Oracle is the reference model: one entry per key, one kind per entry,
// exactly like the real dataset.
type Oracle struct {
	data map[string]*entry
}

// New returns an empty oracle.
func New() *Oracle {
	return &Oracle{data: make(map[string]*entry)}
}

func (o *Oracle) get(key string) (*entry, bool) {
	e, ok := o.data[key]
	return e, ok
}

// Set implements SET: create-or-overwrite across kinds.
func (o *Oracle) Set(key, value string) {
	o.data[key] = &entry{kind: kindString, str: value}
}

// Get implements GET. ok is false for a missing key; wrongType is true when
// the key exists but is not a string.
func (o *Oracle) Get(key string) (value string, ok, wrongType bool) {
	e, present := o.get(key)
	if !present {
		return "", false, false
	}

	if e.kind != kindString {
		return "", true, true
	}

	return e.str, true, false
}

// Del implements DEL over any number of keys, returning the count removed.
func (o *Oracle) Del(keys ...string) uint64 {
	var n uint64

	for _, k := range keys {
		if _, ok := o.data[k]; ok {
			delete(o.data, k)
			n++
		}
	}

	return n
}

// Rename implements RENAME. ok is false if from is missing.
func (o *Oracle) Rename(from, to string) bool {
	e, present := o.get(from)
	if !present {
		return false
	}

	delete(o.data, from)
	o.data[to] = e

	return true
}

func (o *Oracle) listEntry(key string, create bool) (*entry, bool) {
	e, ok := o.data[key]
	if !ok {
		if !create {
			return nil, false
		}

		e = &entry{kind: kindList}
		o.data[key] = e
	}

	return e, e.kind == kindList
}

// LPush implements LPUSH, returning the new length.
func (o *Oracle) LPush(key string, values ...string) (uint64, bool) {
	e, ok := o.listEntry(key, true)
	if !ok {
		return 0, false
	}

	e.list = append(append([]string{}, values...), e.list...)

	return uint64(len(e.list)), true
}

// RPush implements RPUSH, returning the new length.
func (o *Oracle) RPush(key string, values ...string) (uint64, bool) {
	e, ok := o.listEntry(key, true)
	if !ok {
		return 0, false
	}

	e.list = append(e.list, values...)

	return uint64(len(e.list)), true
}

// LPop implements LPOP, returning the popped values head-first. wrongType
// is true only when key exists under a different kind; a missing key
// yields (nil, false), matching the real executor's Null reply.
func (o *Oracle) LPop(key string, n uint64) (popped []string, wrongType bool) {
	e, present := o.get(key)
	if !present {
		return nil, false
	}

	if e.kind != kindList {
		return nil, true
	}

	if n > uint64(len(e.list)) {
		n = uint64(len(e.list))
	}

	popped = e.list[:n]
	e.list = e.list[n:]

	return popped, false
}

// RPop implements RPOP, returning the popped values tail-first.
func (o *Oracle) RPop(key string, n uint64) (popped []string, wrongType bool) {
	e, present := o.get(key)
	if !present {
		return nil, false
	}

	if e.kind != kindList {
		return nil, true
	}

	if n > uint64(len(e.list)) {
		n = uint64(len(e.list))
	}

	l := len(e.list)
	popped = make([]string, n)

	for i := range popped {
		popped[i] = e.list[l-1-i]
	}

	e.list = e.list[:l-int(n)]

	return popped, false
}

// LLen implements the LLEN quirk carried over from spec.md §8 scenario 6:
// a missing key or a wrong-kind key reads as an empty list.
func (o *Oracle) LLen(key string) uint64 {
	e, ok := o.get(key)
	if !ok || e.kind != kindList {
		return 0
	}

	return uint64(len(e.list))
}

// LRange implements LRANGE with clamped, inclusive bounds.
func (o *Oracle) LRange(key string, start, stop uint64) []string {
	e, ok := o.get(key)
	if !ok || e.kind != kindList {
		return nil
	}

	l := uint64(len(e.list))
	if l == 0 {
		return nil
	}

	if stop >= l {
		stop = l - 1
	}

	if start > stop || start >= l {
		return nil
	}

	out := make([]string, stop-start+1)
	copy(out, e.list[start:stop+1])

	return out
}

func (o *Oracle) zsetEntry(key string, create bool) (*entry, bool) {
	e, ok := o.data[key]
	if !ok {
		if !create {
			return nil, false
		}

		e = &entry{kind: kindSortedSet, zset: make(map[string]float64)}
		o.data[key] = e
	}

	return e, e.kind == kindSortedSet
}

// ZAdd implements ZADD, returning the count of newly-inserted members.
func (o *Oracle) ZAdd(key string, pairs ...zmember) (uint64, bool) {
	e, ok := o.zsetEntry(key, true)
	if !ok {
		return 0, false
	}

	var added uint64

	for _, p := range pairs {
		if _, exists := e.zset[p.member]; !exists {
			added++
		}

		e.zset[p.member] = p.score
	}

	return added, true
}

// ZScore implements ZSCORE.
func (o *Oracle) ZScore(key, member string) (float64, bool) {
	e, ok := o.zsetEntry(key, false)
	if !ok {
		return 0, false
	}

	score, ok := e.zset[member]

	return score, ok
}

// ZCard implements ZCARD.
func (o *Oracle) ZCard(key string) uint64 {
	e, ok := o.zsetEntry(key, false)
	if !ok {
		return 0
	}

	return uint64(len(e.zset))
}

func (o *Oracle) sortedMembers(key string) []zmember {
	e, ok := o.zsetEntry(key, false)
	if !ok {
		return nil
	}

	members := make([]zmember, 0, len(e.zset))
	for m, s := range e.zset {
		members = append(members, zmember{member: m, score: s})
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].score != members[j].score {
			return members[i].score < members[j].score
		}

		return members[i].member < members[j].member
	})

	return members
}

// ZRange implements ZRANGE/ZREVRANGE by rank.
func (o *Oracle) ZRange(key string, start, stop uint64, reverse bool) []string {
	members := o.sortedMembers(key)
	if reverse {
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}

	l := uint64(len(members))
	if l == 0 {
		return nil
	}

	if stop >= l {
		stop = l - 1
	}

	if start > stop || start >= l {
		return nil
	}

	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, members[i].member)
	}

	return out
}

// ZRank implements ZRANK/ZREVRANK.
func (o *Oracle) ZRank(key, member string, reverse bool) (uint64, bool) {
	members := o.sortedMembers(key)
	if reverse {
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}

	for i, m := range members {
		if m.member == member {
			return uint64(i), true
		}
	}

	return 0, false
}

// ZMember builds a score/member pair for ZAdd.
func ZMember(score float64, member string) zmember {
	return zmember{member: member, score: score}
}
