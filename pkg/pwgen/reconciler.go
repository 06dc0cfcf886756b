package pwgen

import (
	"fmt"
)

// Toggle records one click on a class checkbox and the state it produced.
type Toggle struct {
	Class    Class
	Want     bool
	Before   bool
	After    bool
	Rejected bool
}

// Outcome is the result of reconciling the checkboxes towards a target.
type Outcome struct {
	Target  Classes
	Before  Classes
	After   Classes
	Toggles []Toggle
}

// Reached reports whether the page ended in the target state.
func (o Outcome) Reached() bool {
	return o.After == o.Target
}

// Rejected lists the classes whose toggle did not change the page state.
func (o Outcome) Rejected() []Class {
	var rejected []Class
	for _, t := range o.Toggles {
		if t.Rejected {
			rejected = append(rejected, t.Class)
		}
	}
	return rejected
}

// Reconciler drives the class checkboxes. It never assumes a click worked:
// the page refuses to uncheck the last checked class, so the state is read
// back after every click.
type Reconciler struct {
	elements *Elements
}

func NewReconciler(elements *Elements) *Reconciler {
	return &Reconciler{elements: elements}
}

// State reads the checked state of all four classes.
func (r *Reconciler) State() (Classes, error) {
	var state Classes
	for _, class := range ClassOrder {
		checked, err := r.elements.Checkbox(class).Checked()
		if err != nil {
			return Classes{}, fmt.Errorf("read %s checkbox: %w", class, err)
		}
		state = state.With(class, checked)
	}
	return state, nil
}

// Toggle clicks the checkbox of class once and reports the observed change.
func (r *Reconciler) Toggle(class Class) (Toggle, Classes, error) {
	before, err := r.State()
	if err != nil {
		return Toggle{}, Classes{}, err
	}
	return r.toggle(class, before)
}

func (r *Reconciler) toggle(class Class, before Classes) (Toggle, Classes, error) {
	t := Toggle{Class: class, Want: !before.Has(class), Before: before.Has(class)}

	if err := r.elements.Checkbox(class).Click(); err != nil {
		return t, before, fmt.Errorf("click %s checkbox: %w", class, err)
	}

	after, err := r.State()
	if err != nil {
		return t, before, err
	}
	t.After = after.Has(class)
	t.Rejected = t.After == t.Before
	return t, after, nil
}

// Apply toggles every class that differs from target. Enabling clicks run
// first and disabling clicks second, each pass in ClassOrder, so that any
// target with at least one class is reachable. For an empty target the page
// keeps the last checked class in ClassOrder.
func (r *Reconciler) Apply(target Classes) (Outcome, error) {
	before, err := r.State()
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Target: target, Before: before, After: before}
	current := before

	for _, enable := range []bool{true, false} {
		for _, class := range ClassOrder {
			if target.Has(class) != enable || current.Has(class) == enable {
				continue
			}
			t, after, err := r.toggle(class, current)
			if err != nil {
				return outcome, err
			}
			outcome.Toggles = append(outcome.Toggles, t)
			current = after
			outcome.After = after
		}
	}

	return outcome, nil
}
