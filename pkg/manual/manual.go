// Package manual reads a user-chosen diameter list, one nominal diameter
// per segment in traversal order, into an assignment.
package manual

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

// ErrInput is matched by every InputError.
var ErrInput = errors.New("invalid manual input")

// InputError rejects one line of manual input. Line is 1-based; zero
// means the input as a whole (for example too few lines).
type InputError struct {
	Line   int
	Text   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("manual input: %s", e.Reason)
	}
	return fmt.Sprintf("manual input line %d %q: %s", e.Line, e.Text, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInput }

// Parse reads diameters until a blank line or EOF and matches each one to
// the commercial option of the corresponding segment's material. Decimal
// commas are accepted.
func Parse(r io.Reader, n *network.Network, ref *tables.Tables) (projection.Assignment, error) {
	var values []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			break
		}
		values = append(values, line)
	}
	if err := sc.Err(); err != nil {
		return projection.Assignment{}, fmt.Errorf("reading manual input: %w", err)
	}
	return FromValues(values, n, ref)
}

// FromValues builds an assignment from already split entries, one per
// segment in traversal order.
func FromValues(values []string, n *network.Network, ref *tables.Tables) (projection.Assignment, error) {
	a := projection.NewAssignment(projection.OriginManual)
	segs := n.Segments()
	for i, text := range values {
		line := i + 1
		if i >= len(segs) {
			return a, &InputError{Line: line, Text: text, Reason: fmt.Sprintf("network has only %d segments", len(segs))}
		}
		o, err := Match(text, segs[i], ref)
		if err != nil {
			return a, &InputError{Line: line, Text: text, Reason: err.Error()}
		}
		a.Options[segs[i].ID] = o
	}
	if len(values) < len(segs) {
		return a, &InputError{Reason: fmt.Sprintf("got %d diameters for %d segments, next is segment %s", len(values), len(segs), segs[len(values)].ID)}
	}
	return a, nil
}

// Match resolves one entry for seg. Entries may carry a "DN" prefix or an
// "mm" suffix.
func Match(text string, seg network.Segment, ref *tables.Tables) (tables.DiameterOption, error) {
	v := strings.ToLower(strings.TrimSpace(text))
	v = strings.TrimSpace(strings.TrimPrefix(v, "dn"))
	v = strings.TrimSpace(strings.TrimSuffix(v, "mm"))
	dn, err := tables.ParseNumber(v)
	if err != nil {
		return tables.DiameterOption{}, fmt.Errorf("not a number")
	}
	if dn <= 0 {
		return tables.DiameterOption{}, fmt.Errorf("diameter must be positive")
	}
	o, err := ref.Option(seg.Material, dn)
	if err != nil {
		return tables.DiameterOption{}, fmt.Errorf("segment %s: no commercial %s diameter of %g mm", seg.ID, seg.Material, dn)
	}
	return o, nil
}
