package foldertree

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/distrohub/mediadesk/internal/models"
)

var (
	// ErrEmptyName rejects blank folder names.
	ErrEmptyName = errors.New("folder name must not be empty")
	// ErrActionConsumed is returned by a second Consume of the same action.
	ErrActionConsumed = errors.New("folder action already consumed")
	// ErrRootTarget rejects actions aimed at the synthetic root.
	ErrRootTarget = errors.New("the root folder cannot be renamed or deleted")
)

// ValidateName trims name and rejects it if nothing is left.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// ExpandState tracks which folders are expanded. The root is always
// expanded. Safe for concurrent use.
type ExpandState struct {
	mu       sync.RWMutex
	expanded map[string]bool
}

// NewExpandState returns a state with everything collapsed.
func NewExpandState() *ExpandState {
	return &ExpandState{expanded: make(map[string]bool)}
}

func (e *ExpandState) Expand(id string) {
	e.mu.Lock()
	e.expanded[id] = true
	e.mu.Unlock()
}

func (e *ExpandState) Collapse(id string) {
	e.mu.Lock()
	delete(e.expanded, id)
	e.mu.Unlock()
}

// Toggle flips id and returns the new state.
func (e *ExpandState) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expanded[id] {
		delete(e.expanded, id)
		return false
	}
	e.expanded[id] = true
	return true
}

func (e *ExpandState) IsExpanded(id string) bool {
	if id == "" || id == models.RootFolderID {
		return true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.expanded[id]
}

// ExpandAll expands every folder of t.
func (e *ExpandState) ExpandAll(t *Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t.Walk(func(n *Node, _ int) bool {
		e.expanded[n.ID] = true
		return true
	})
}

// Prune forgets folders that no longer exist in t.
func (e *ExpandState) Prune(t *Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.expanded {
		if _, ok := t.Find(id); !ok {
			delete(e.expanded, id)
		}
	}
}

// Reveal expands every ancestor of id so it is visible. A cycle in the
// ancestor chain is reported and nothing is expanded.
func Reveal(t *Tree, e *ExpandState, id string) error {
	chain, err := t.Ancestors(id)
	if err != nil {
		return err
	}
	for _, a := range chain {
		e.Expand(a)
	}
	return nil
}

// ActionKind names a folder mutation awaiting completion.
type ActionKind int

const (
	ActionRename ActionKind = iota + 1
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionRename:
		return "rename"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Action carries the target of one rename or delete from the moment it is
// started until it is confirmed. It can be consumed once.
type Action struct {
	Kind     ActionKind
	TargetID string
	consumed atomic.Bool
}

// NewAction starts an action on targetID.
func NewAction(kind ActionKind, targetID string) (*Action, error) {
	if targetID == "" || targetID == models.RootFolderID {
		return nil, ErrRootTarget
	}
	return &Action{Kind: kind, TargetID: targetID}, nil
}

// Consume returns the target id the first time and ErrActionConsumed after.
func (a *Action) Consume() (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: no action started", ErrActionConsumed)
	}
	if !a.consumed.CompareAndSwap(false, true) {
		return "", fmt.Errorf("%w: %s %s", ErrActionConsumed, a.Kind, a.TargetID)
	}
	return a.TargetID, nil
}

// Consumed reports whether Consume already succeeded.
func (a *Action) Consumed() bool {
	return a.consumed.Load()
}
