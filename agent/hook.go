package agent

import "github.com/hfxlab/tempo/timeline"

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosBeforeAction triggers right before a due action is attempted.
var HookPosBeforeAction = &HookPos{Name: "BeforeAction"}

// HookPosAfterAction triggers right after a due action was attempted.
var HookPosAfterAction = &HookPos{Name: "AfterAction"}

// HookCtx holds the information about the site where a hook is triggered.
type HookCtx struct {
	Agent  *TimedAgent
	Pos    *HookPos
	Firing timeline.Firing

	// Err is the attempt error, only set at HookPosAfterAction.
	Err error
}

// A Hook is a short piece of program invoked by a hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase provides the hook bookkeeping for types that implement the
// Hookable interface.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
