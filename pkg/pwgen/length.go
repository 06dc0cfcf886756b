package pwgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
)

// LengthControl sets and observes the password length through the number
// input and the range slider. It submits raw input and never clamps; the
// page owns the bounds.
type LengthControl struct {
	input  *Handle
	slider *Handle
}

func NewLengthControl(elements *Elements) *LengthControl {
	return &LengthControl{input: elements.Length, slider: elements.Slider}
}

// Set fills raw into the length input. A control that refuses the text
// (number inputs reject non-numeric text) is reported through rejected,
// not as an error; the page then keeps its previous length.
func (l *LengthControl) Set(raw string) (rejected bool, err error) {
	err = l.input.Fill(raw)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, browser.ErrTimeout) {
		return false, fmt.Errorf("set length %q: %w", raw, err)
	}
	if _, convErr := strconv.ParseFloat(strings.TrimSpace(raw), 64); convErr != nil {
		return true, nil
	}
	return false, fmt.Errorf("set length %q: %w", raw, err)
}

// Step presses key on the slider n times.
func (l *LengthControl) Step(key string, n int) error {
	switch key {
	case browser.KeyArrowRight, browser.KeyArrowLeft, browser.KeyArrowUp, browser.KeyArrowDown:
	default:
		return fmt.Errorf("unsupported slider key %q", key)
	}
	for i := 0; i < n; i++ {
		if err := l.slider.Press(key); err != nil {
			return fmt.Errorf("press %s (%d of %d): %w", key, i+1, n, err)
		}
	}
	return nil
}

// Value reads the length input.
func (l *LengthControl) Value() (int, error) {
	return readInt(l.input)
}

// SliderValue reads the slider position.
func (l *LengthControl) SliderValue() (int, error) {
	return readInt(l.slider)
}

func readInt(h *Handle) (int, error) {
	raw, err := h.Value()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s holds non-numeric value %q", h.Name(), raw)
	}
	return n, nil
}
