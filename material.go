package helium

import (
	"fmt"
	"math"

	"github.com/akmonengine/helium/actor"
)

// ContactMaterial holds the contact properties for a pair of materials
type ContactMaterial struct {
	MaterialA   *actor.Material
	MaterialB   *actor.Material
	Friction    float64 // >= 0
	Restitution float64 // 0 = no rebound, 1 = perfect restitution
}

// DefaultContactMaterial is used by pairs absent from the table
var DefaultContactMaterial = ContactMaterial{Friction: 0.3, Restitution: 0.0}

// valid is false for NaN or infinite coefficients
func (cm ContactMaterial) valid() bool {
	return cm.Friction >= 0 && !math.IsInf(cm.Friction, 1) &&
		cm.Restitution >= 0 && cm.Restitution <= 1
}

type materialPair struct {
	a *actor.Material
	b *actor.Material
}

// MaterialTable resolves contact properties for unordered material pairs
type MaterialTable struct {
	Default ContactMaterial
	pairs   map[materialPair]ContactMaterial
}

func NewMaterialTable() *MaterialTable {
	return &MaterialTable{
		Default: DefaultContactMaterial,
		pairs:   make(map[materialPair]ContactMaterial),
	}
}

// Add registers a contact material. Pairs are immutable once added.
func (t *MaterialTable) Add(cm ContactMaterial) error {
	if !cm.valid() {
		return fmt.Errorf("%w: %s/%s friction=%v restitution=%v",
			ErrInvalidContactMaterial, cm.MaterialA, cm.MaterialB, cm.Friction, cm.Restitution)
	}
	if _, exists := t.lookup(cm.MaterialA, cm.MaterialB); exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateContactMaterial, cm.MaterialA, cm.MaterialB)
	}

	t.pairs[materialPair{cm.MaterialA, cm.MaterialB}] = cm

	return nil
}

// Lookup returns the contact material for the pair, in either order, or the default
func (t *MaterialTable) Lookup(a, b *actor.Material) ContactMaterial {
	if cm, ok := t.lookup(a, b); ok {
		return cm
	}

	return t.Default
}

func (t *MaterialTable) lookup(a, b *actor.Material) (ContactMaterial, bool) {
	if cm, ok := t.pairs[materialPair{a, b}]; ok {
		return cm, true
	}
	cm, ok := t.pairs[materialPair{b, a}]

	return cm, ok
}

func (t *MaterialTable) Len() int {
	return len(t.pairs)
}
