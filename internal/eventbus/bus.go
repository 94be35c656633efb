// Package eventbus provides the synchronous, in-process, typed-by-kind
// publish/subscribe mechanism tying the empire engine, attack engine,
// battle runtime, world loop and AI opponent together without any of
// them holding a direct reference to one another.
package eventbus

import (
	"fmt"

	"github.com/empiresrv/empireserver/pkg/logger"
)

// Kind :
// Identifies the family of an event. Handlers subscribe per kind, not
// per concrete payload type, which keeps the bus itself free of any
// knowledge of the core's domain types.
type Kind string

// Defines the event kinds the core emits. Finer-grained battle events
// (critter died, structure fired) are defined by internal/battle itself
// and registered the same way; the bus does not hard-code their names.
const (
	ItemCompleted        Kind = "item_completed"
	AttackPhaseChanged   Kind = "attack_phase_changed"
	BattleStartRequested Kind = "battle_start_requested"
	BattleFinished       Kind = "battle_finished"
)

// Handler :
// A subscriber callback. It receives the raw event payload (the
// concrete type is agreed between publishers and subscribers of a given
// `Kind` out of band — the bus itself treats it opaquely).
type Handler func(event interface{})

// Bus :
// A synchronous, in-process, typed publish/subscribe bus. `Emit` iterates
// the handlers registered for an event's kind in registration order and
// calls them inline: the publisher's goroutine blocks until every
// handler has returned. This is deliberate — it is what lets the world
// loop rely on "by the time step_all returns, every ItemCompleted
// observer (including the AI) has already reacted".
//
// The `handlers` map associates a kind with the ordered list of callbacks
// registered for it.
//
// The `log` is used to report (and swallow) panics raised by a handler,
// so that one failing observer never takes down the emitter or the
// handlers registered after it.
type Bus struct {
	handlers map[Kind][]Handler
	log      logger.Logger
}

// New :
// Builds an empty bus.
func New(log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]Handler),
		log:      log,
	}
}

// Subscribe :
// Registers `h` to be called, in addition to any handler already
// registered for `kind`, whenever an event of that kind is emitted.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.handlers[kind] = append(b.handlers[kind], h)
}

// UnsubscribeAll :
// Removes every handler registered for `kind`. Handlers are plain funcs,
// which are not comparable in Go, so this bus offers no per-handler
// removal.
func (b *Bus) UnsubscribeAll(kind Kind) {
	delete(b.handlers, kind)
}

// Emit :
// Delivers `event` synchronously to every handler registered for `kind`,
// in registration order. A handler that panics is recovered, logged at
// `logger.Error`, and does not prevent the remaining handlers from
// running nor does it propagate to the caller.
func (b *Bus) Emit(kind Kind, event interface{}) {
	for _, h := range b.handlers[kind] {
		b.safeCall(h, event)
	}
}

// safeCall :
// Invokes a single handler, converting any panic into a logged error.
func (b *Bus) safeCall(h Handler, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Trace(logger.Error, "eventbus", fmt.Sprintf("handler panicked (event: %v, recovered: %v)", event, r))
			}
		}
	}()

	h(event)
}
