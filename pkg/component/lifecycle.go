// SPDX-License-Identifier: MPL-2.0

package component

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

const (
	stateNew lifecycleState = iota
	stateReady
	stateRegistered
)

// ErrLifecycleState is returned when Lifecycle methods are called out of
// order.
var ErrLifecycleState = errors.New("lifecycle called out of order")

type (
	// Host is the application the addon registers with.
	Host interface {
		RegisterClass(c Class) error
		UnregisterClass(c Class) error
		// HasTarget reports whether a UI element with the given ID exists.
		HasTarget(id string) bool
		AttachDraw(ext Extension) error
		DetachDraw(ext Extension) error
	}

	lifecycleState int

	// Lifecycle holds the registration state of one addon for one host
	// session: Init once, then Register and Unregister.
	Lifecycle struct {
		logger   *log.Logger
		state    lifecycleState
		registry *Registry
		schedule *Schedule
		attached []Extension
		warnings []Warning
	}
)

// NewLifecycle creates a Lifecycle logging to logger. A nil logger discards.
func NewLifecycle(logger *log.Logger) *Lifecycle {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Lifecycle{logger: logger}
}

// Init builds the dependency graph and registration schedule for reg. A
// dependency cycle fails Init and leaves the Lifecycle unusable.
func (l *Lifecycle) Init(reg *Registry) error {
	if l.state != stateNew {
		return fmt.Errorf("init: %w", ErrLifecycleState)
	}
	g, warnings := BuildGraph(reg)
	for _, w := range warnings {
		l.warn(w)
	}
	s, err := g.Schedule(reg)
	if err != nil {
		return err
	}
	l.registry = reg
	l.schedule = s
	l.state = stateReady
	return nil
}

// Order returns the registration schedule computed by Init.
func (l *Lifecycle) Order() []string {
	if l.schedule == nil {
		return nil
	}
	return l.schedule.Registration()
}

// Warnings returns every recoverable problem seen so far.
func (l *Lifecycle) Warnings() []Warning { return append([]Warning(nil), l.warnings...) }

// Register hands every class to the host in schedule order, runs module
// register hooks, then attaches extensions whose target exists. If a class or
// hook fails, what was already registered is rolled back.
func (l *Lifecycle) Register(host Host) error {
	if l.state != stateReady {
		return fmt.Errorf("register: %w", ErrLifecycleState)
	}

	order := l.schedule.Registration()
	for i, id := range order {
		c, _ := l.registry.Lookup(id)
		if err := host.RegisterClass(c); err != nil {
			l.rollback(host, order[:i])
			return fmt.Errorf("register class %s: %w", id, err)
		}
		l.logger.Debug("registered class", "class", id)
	}

	for _, m := range l.registry.Modules() {
		if m.Register == nil {
			continue
		}
		if err := m.Register(host); err != nil {
			l.rollback(host, order)
			return fmt.Errorf("register module %s: %w", m.Name, err)
		}
	}

	l.attached = l.attached[:0]
	for _, ext := range l.registry.Extensions() {
		if !host.HasTarget(ext.Target) {
			l.warn(Warning{Subject: ext.ID, Message: fmt.Sprintf("target %q not found; extension skipped", ext.Target)})
			continue
		}
		if err := host.AttachDraw(ext); err != nil {
			l.warn(Warning{Subject: ext.ID, Message: fmt.Sprintf("attach to %q failed: %v", ext.Target, err)})
			continue
		}
		l.attached = append(l.attached, ext)
	}

	l.state = stateRegistered
	return nil
}

// Unregister withdraws classes in the reverse of the registration order, runs
// module unregister hooks, then detaches the extensions Register attached.
// Every step runs even if an earlier one fails; the errors are joined.
func (l *Lifecycle) Unregister(host Host) error {
	if l.state != stateRegistered {
		return fmt.Errorf("unregister: %w", ErrLifecycleState)
	}

	var errs []error
	for _, id := range l.schedule.Unregistration() {
		c, _ := l.registry.Lookup(id)
		if err := host.UnregisterClass(c); err != nil {
			errs = append(errs, fmt.Errorf("unregister class %s: %w", id, err))
		}
	}
	for _, m := range l.registry.Modules() {
		if m.Unregister == nil {
			continue
		}
		if err := m.Unregister(host); err != nil {
			errs = append(errs, fmt.Errorf("unregister module %s: %w", m.Name, err))
		}
	}
	for _, ext := range l.attached {
		if err := host.DetachDraw(ext); err != nil {
			errs = append(errs, fmt.Errorf("detach extension %s: %w", ext.ID, err))
		}
	}
	l.attached = nil
	l.state = stateReady
	return errors.Join(errs...)
}

func (l *Lifecycle) rollback(host Host, registered []string) {
	for i := len(registered) - 1; i >= 0; i-- {
		c, _ := l.registry.Lookup(registered[i])
		if err := host.UnregisterClass(c); err != nil {
			l.logger.Warn("rollback failed", "class", c.ID, "err", err)
		}
	}
}

func (l *Lifecycle) warn(w Warning) {
	l.warnings = append(l.warnings, w)
	l.logger.Warn(w.Message, "subject", w.Subject)
}
