package projection

import (
	"fmt"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// Origin tells where an assignment came from.
type Origin string

const (
	OriginOptimized Origin = "optimized"
	OriginManual    Origin = "manual"
)

// Assignment maps every segment to exactly one diameter option.
type Assignment struct {
	Origin  Origin                           `json:"origin"`
	Options map[string]tables.DiameterOption `json:"options"`
}

// NewAssignment creates an empty assignment.
func NewAssignment(origin Origin) Assignment {
	return Assignment{Origin: origin, Options: make(map[string]tables.DiameterOption)}
}

// Covers checks that every segment of n has an entry and nothing else does.
func (a Assignment) Covers(n *network.Network) error {
	for _, s := range n.Segments() {
		if _, ok := a.Options[s.ID]; !ok {
			return fmt.Errorf("%s assignment has no diameter for segment %s", a.Origin, s.ID)
		}
	}
	if len(a.Options) != len(n.Segments()) {
		return fmt.Errorf("%s assignment has %d entries for %d segments", a.Origin, len(a.Options), len(n.Segments()))
	}
	return nil
}
