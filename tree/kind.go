package tree

import (
	"cmp"
	"math"
	"strconv"
	"sync"
)

// Kind identifies the construct a node represents.
//
// The core kinds are declared as constants. Plugins add kinds with [NewKind],
// typically as package-level variables.
type Kind int

const (
	KindNone  Kind = iota // none
	KindRoot              // root
	KindOpen              // open
	KindClose             // close
	KindBody              // body

	kindCore
)

// Weights of the core kinds. Plugin kinds default to [WeightDefault].
const (
	WeightDefault = 0
	WeightAnchor  = 1
	WeightBody    = 2
	WeightRoot    = math.MaxInt
)

type kindInfo struct {
	name   string
	weight int
}

var kinds = struct {
	sync.RWMutex
	info   []kindInfo
	byName map[string]Kind
}{
	info: []kindInfo{
		KindNone:  {"none", WeightDefault},
		KindRoot:  {"root", WeightRoot},
		KindOpen:  {"open", WeightAnchor},
		KindClose: {"close", WeightAnchor},
		KindBody:  {"body", WeightBody},
	},
	byName: map[string]Kind{
		"none": KindNone, "root": KindRoot,
		"open": KindOpen, "close": KindClose, "body": KindBody,
	},
}

// NewKind registers a kind with the given name and weight and returns it.
// Registering a name again returns the existing kind; its weight is kept.
func NewKind(name string, weight int) Kind {
	kinds.Lock()
	defer kinds.Unlock()

	if k, ok := kinds.byName[name]; ok {
		return k
	}

	k := Kind(len(kinds.info))
	kinds.info = append(kinds.info, kindInfo{name: name, weight: weight})
	kinds.byName[name] = k

	return k
}

// LookupKind returns the kind registered under name.
func LookupKind(name string) (Kind, bool) {
	kinds.RLock()
	defer kinds.RUnlock()

	k, ok := kinds.byName[name]

	return k, ok
}

func (k Kind) info() (kindInfo, bool) {
	kinds.RLock()
	defer kinds.RUnlock()

	if k < 0 || int(k) >= len(kinds.info) {
		return kindInfo{}, false
	}

	return kinds.info[k], true
}

// String returns the registered name of k.
func (k Kind) String() string {
	if i, ok := k.info(); ok {
		return i.name
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Weight returns the ordering weight of k.
func (k Kind) Weight() int {
	i, _ := k.info()

	return i.weight
}

// Core reports whether k is one of the kinds built into this package.
func (k Kind) Core() bool { return k >= 0 && k < kindCore }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// compareKinds orders kinds by weight and then by name.
func compareKinds(a, b Kind) int {
	if c := cmp.Compare(a.Weight(), b.Weight()); c != 0 {
		return c
	}

	return cmp.Compare(a.String(), b.String())
}
