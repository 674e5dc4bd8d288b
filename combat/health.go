package combat

// Health tracks hit points for anything that can take bullet damage.
type Health struct {
	Max     float64
	Current float64

	OnDamage func(h *Health, amount float64)
}

// NewHealth creates a Health with current set to max.
func NewHealth(max float64) *Health {
	if max <= 0 {
		max = 1
	}
	return &Health{Max: max, Current: max}
}

// IsAlive reports whether any health remains.
func (h *Health) IsAlive() bool {
	return h != nil && h.Current > 0
}

// ApplyDamage subtracts amount, flooring at zero. It returns true if any
// damage was applied.
func (h *Health) ApplyDamage(amount float64) bool {
	if h == nil || amount <= 0 || h.Current <= 0 {
		return false
	}
	h.Current -= amount
	if h.Current < 0 {
		h.Current = 0
	}
	if h.OnDamage != nil {
		h.OnDamage(h, amount)
	}
	return true
}

// Heal restores health up to Max.
func (h *Health) Heal(amount float64) {
	if h == nil || amount <= 0 || h.Current <= 0 {
		return
	}
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
}

// Fraction returns Current/Max in [0, 1].
func (h *Health) Fraction() float64 {
	if h == nil || h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}
