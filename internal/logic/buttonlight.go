package logic

// StateChangeFunc is called after a button-light has been toggled by its button.
type StateChangeFunc func(bl *ButtonLight, now Tick)

// ButtonLight pairs one light with one momentary button. A press toggles the
// light between On and Off; blinking is only ever entered through the owning
// ensemble, and a press while blinking forces the light Off.
type ButtonLight struct {
	label    int
	index    int
	light    *Light
	onChange StateChangeFunc
}

// NewButtonLight creates a button-light. onChange may be nil.
func NewButtonLight(label, index int, light *Light, onChange StateChangeFunc) *ButtonLight {
	return &ButtonLight{
		label:    label,
		index:    index,
		light:    light,
		onChange: onChange,
	}
}

// OnActivate handles a debounced button press.
func (b *ButtonLight) OnActivate(now Tick) {
	b.light.Toggle()
	if b.onChange != nil {
		b.onChange(b, now)
	}
}

// Advance delegates to the owned light.
func (b *ButtonLight) Advance(now Tick) (int, error) {
	return b.light.Advance(now)
}

// Label returns the 1-based identity label.
func (b *ButtonLight) Label() int {
	return b.label
}

// Index returns the position of the button-light within its ensemble.
func (b *ButtonLight) Index() int {
	return b.index
}

// Light returns the owned light.
func (b *ButtonLight) Light() *Light {
	return b.light
}

// IsLit reports whether the owned light is lit.
func (b *ButtonLight) IsLit() bool {
	return b.light.IsLit()
}
