package chat

import "sync"

// Dropdown is the attach menu's open/closed state.
type Dropdown struct {
	mu   sync.Mutex
	open bool
}

// Toggle flips the state and reports whether the menu is now open.
func (d *Dropdown) Toggle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = !d.open
	return d.open
}

func (d *Dropdown) Close() {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
}

func (d *Dropdown) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// AriaExpanded mirrors the state for the trigger button's aria-expanded attribute.
func (d *Dropdown) AriaExpanded() string {
	if d.IsOpen() {
		return "true"
	}
	return "false"
}
