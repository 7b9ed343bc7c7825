package network

import (
	"errors"
	"fmt"
)

// ErrTopology matches every *TopologyError via errors.Is.
var ErrTopology = errors.New("invalid network topology")

// TopologyKind classifies a topology failure.
type TopologyKind string

const (
	TopologyMalformed    TopologyKind = "malformed"
	TopologyDisconnected TopologyKind = "disconnected"
	TopologyCyclic       TopologyKind = "cyclic"
	TopologySource       TopologyKind = "source"
)

// TopologyError rejects a network before any computation.
type TopologyError struct {
	Kind    TopologyKind
	Element string // offending node or segment ID, may be empty
	Msg     string
}

func (e *TopologyError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("topology %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("topology %s at %s: %s", e.Kind, e.Element, e.Msg)
}

func (e *TopologyError) Is(target error) bool {
	return target == ErrTopology
}

func topoErr(kind TopologyKind, element, format string, args ...any) *TopologyError {
	return &TopologyError{Kind: kind, Element: element, Msg: fmt.Sprintf(format, args...)}
}
