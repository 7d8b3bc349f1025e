package graph

import "context"

// ValueSource is the capability a node must provide to be plotted. Identity is
// by ID; a source is tracked at most once per manager.
type ValueSource interface {
	ID() string
	DisplayName() string
	DataTypeName() string
	Value(ctx context.Context) (Value, error)
}

// ValueReader reads the current raw value of a node. Satisfied by the opc
// client wrapper.
type ValueReader interface {
	ReadValue(ctx context.Context, nodeID string) (interface{}, error)
}

// NodeSource adapts an OPC UA variable node to the ValueSource capability.
// DisplayName and DataTypeName are resolved once, when the node is offered to
// the graph, and kept for the lifetime of the source.
type NodeSource struct {
	reader   ValueReader
	nodeID   string
	name     string
	dataType string
}

func NewNodeSource(reader ValueReader, nodeID, displayName, dataType string) *NodeSource {
	if displayName == "" {
		displayName = nodeID
	}
	return &NodeSource{
		reader:   reader,
		nodeID:   nodeID,
		name:     displayName,
		dataType: dataType,
	}
}

func (s *NodeSource) ID() string { return s.nodeID }

func (s *NodeSource) DisplayName() string { return s.name }

func (s *NodeSource) DataTypeName() string { return s.dataType }

func (s *NodeSource) Value(ctx context.Context) (Value, error) {
	raw, err := s.reader.ReadValue(ctx, s.nodeID)
	if err != nil {
		return Value{}, err
	}
	return Coerce(raw)
}
