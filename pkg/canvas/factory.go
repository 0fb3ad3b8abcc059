package canvas

import "github.com/romartin/kie-wb-common-sub000/pkg/graph"

// Factory builds canvas commands for the common diagram edits.
type Factory struct{}

func (Factory) AddNode(n *graph.Node) Command {
	return FromGraph(&graph.AddNode{Node: n})
}

func (Factory) AddChildNode(parentID string, n *graph.Node) Command {
	return FromGraph(&graph.AddNode{Node: n, ParentID: parentID})
}

func (Factory) DeleteNode(nodeID string) Command {
	return FromGraph(&graph.DeleteNode{NodeID: nodeID})
}

func (Factory) AddConnector(sourceID string, e *graph.Edge, magnet int) Command {
	return FromGraph(&graph.AddConnector{Edge: e, SourceID: sourceID, SourceMagnet: magnet})
}

func (Factory) DeleteConnector(edgeID string) Command {
	return FromGraph(&graph.DeleteConnector{EdgeID: edgeID})
}

func (Factory) SetSourceNode(edgeID, nodeID string, magnet int) Command {
	return FromGraph(&graph.SetConnectionSource{EdgeID: edgeID, NodeID: nodeID, Magnet: magnet})
}

func (Factory) SetTargetNode(edgeID, nodeID string, magnet int) Command {
	return FromGraph(&graph.SetConnectionTarget{EdgeID: edgeID, NodeID: nodeID, Magnet: magnet})
}

func (Factory) UpdatePosition(nodeID string, x, y int) Command {
	return FromGraph(&graph.UpdatePosition{NodeID: nodeID, X: x, Y: y})
}

func (Factory) UpdateProperty(elementID, key, value string) Command {
	return FromGraph(&graph.UpdateProperty{ElementID: elementID, Key: key, Value: value})
}

func (Factory) SetParent(nodeID, parentID string) Command {
	return FromGraph(&graph.SetParent{NodeID: nodeID, ParentID: parentID})
}
