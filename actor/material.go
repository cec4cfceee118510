package actor

// Material is a named surface tag. Two bodies share a material when they
// point to the same Material value; contact properties for a pair of
// materials live in the world's material table.
type Material struct {
	Name string
}

// NewMaterial creates a material tag
func NewMaterial(name string) *Material {
	return &Material{Name: name}
}

func (m *Material) String() string {
	if m == nil {
		return "<default>"
	}

	return m.Name
}
