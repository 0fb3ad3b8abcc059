package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownRecord is returned when decoding a record with an unknown tag.
var ErrUnknownRecord = errors.New("unknown command record")

// Record is the storage representation of a graph command: a type tag and
// the command's explicit field list.
type Record struct {
	Type   string          `json:"type"`
	Fields json.RawMessage `json:"fields"`
}

const (
	RecordAddNode             = "add_node"
	RecordDeleteNode          = "delete_node"
	RecordAddConnector        = "add_connector"
	RecordDeleteConnector     = "delete_connector"
	RecordSetConnectionSource = "set_connection_source"
	RecordSetConnectionTarget = "set_connection_target"
	RecordUpdatePosition      = "update_position"
	RecordUpdateProperty      = "update_property"
	RecordSetParent           = "set_parent"
)

type addNodeFields struct {
	Node     *Node  `json:"node"`
	ParentID string `json:"parent_id,omitempty"`
}

type deleteNodeFields struct {
	NodeID string `json:"node_id"`
}

type addConnectorFields struct {
	Edge         *Edge  `json:"edge"`
	SourceID     string `json:"source_id"`
	SourceMagnet int    `json:"source_magnet"`
}

type deleteConnectorFields struct {
	EdgeID string `json:"edge_id"`
}

type connectionFields struct {
	EdgeID string `json:"edge_id"`
	NodeID string `json:"node_id,omitempty"`
	Magnet int    `json:"magnet"`
}

type positionFields struct {
	NodeID string `json:"node_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type propertyFields struct {
	ElementID string `json:"element_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

type parentFields struct {
	NodeID   string `json:"node_id"`
	ParentID string `json:"parent_id,omitempty"`
}

// Encode returns the record for a graph command.
func Encode(cmd Command) (Record, error) {
	var tag string
	var fields any
	switch c := cmd.(type) {
	case *AddNode:
		tag, fields = RecordAddNode, addNodeFields{Node: c.Node, ParentID: c.ParentID}
	case *DeleteNode:
		tag, fields = RecordDeleteNode, deleteNodeFields{NodeID: c.NodeID}
	case *AddConnector:
		tag, fields = RecordAddConnector, addConnectorFields{Edge: c.Edge, SourceID: c.SourceID, SourceMagnet: c.SourceMagnet}
	case *DeleteConnector:
		tag, fields = RecordDeleteConnector, deleteConnectorFields{EdgeID: c.EdgeID}
	case *SetConnectionSource:
		tag, fields = RecordSetConnectionSource, connectionFields{EdgeID: c.EdgeID, NodeID: c.NodeID, Magnet: c.Magnet}
	case *SetConnectionTarget:
		tag, fields = RecordSetConnectionTarget, connectionFields{EdgeID: c.EdgeID, NodeID: c.NodeID, Magnet: c.Magnet}
	case *UpdatePosition:
		tag, fields = RecordUpdatePosition, positionFields{NodeID: c.NodeID, X: c.X, Y: c.Y}
	case *UpdateProperty:
		tag, fields = RecordUpdateProperty, propertyFields{ElementID: c.ElementID, Key: c.Key, Value: c.Value}
	case *SetParent:
		tag, fields = RecordSetParent, parentFields{NodeID: c.NodeID, ParentID: c.ParentID}
	default:
		return Record{}, fmt.Errorf("%w: cannot encode %T", ErrUnknownRecord, cmd)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal %s: %w", tag, err)
	}
	return Record{Type: tag, Fields: raw}, nil
}

// Decode rebuilds a fresh, unexecuted graph command from its record.
func Decode(rec Record) (Command, error) {
	switch rec.Type {
	case RecordAddNode:
		var f addNodeFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &AddNode{Node: f.Node, ParentID: f.ParentID}, nil
	case RecordDeleteNode:
		var f deleteNodeFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &DeleteNode{NodeID: f.NodeID}, nil
	case RecordAddConnector:
		var f addConnectorFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &AddConnector{Edge: f.Edge, SourceID: f.SourceID, SourceMagnet: f.SourceMagnet}, nil
	case RecordDeleteConnector:
		var f deleteConnectorFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &DeleteConnector{EdgeID: f.EdgeID}, nil
	case RecordSetConnectionSource:
		var f connectionFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &SetConnectionSource{EdgeID: f.EdgeID, NodeID: f.NodeID, Magnet: f.Magnet}, nil
	case RecordSetConnectionTarget:
		var f connectionFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &SetConnectionTarget{EdgeID: f.EdgeID, NodeID: f.NodeID, Magnet: f.Magnet}, nil
	case RecordUpdatePosition:
		var f positionFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &UpdatePosition{NodeID: f.NodeID, X: f.X, Y: f.Y}, nil
	case RecordUpdateProperty:
		var f propertyFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &UpdateProperty{ElementID: f.ElementID, Key: f.Key, Value: f.Value}, nil
	case RecordSetParent:
		var f parentFields
		if err := unmarshal(rec, &f); err != nil {
			return nil, err
		}
		return &SetParent{NodeID: f.NodeID, ParentID: f.ParentID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecord, rec.Type)
	}
}

func unmarshal(rec Record, v any) error {
	if err := json.Unmarshal(rec.Fields, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", rec.Type, err)
	}
	return nil
}
