package opc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

// Client wraps the gopcua client with the read and browse calls the graphing
// UI needs. All value access is polled; the graph managers re-read values on
// their own tickers.
type Client struct {
	mu       sync.RWMutex
	Client   *opcua.Client
	endpoint string
}

func NewClient(endpoint string, opts ...opcua.Option) (*Client, error) {
	cli, err := opcua.NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:   cli,
		endpoint: endpoint,
	}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	return c.Client.Connect(ctx)
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Client == nil {
		return nil
	}
	err := c.Client.Close(ctx)
	c.Client = nil
	return err
}

// ReadValue reads the current Value attribute of a node and returns the raw
// variant value. The graph layer coerces it into a tagged scalar or array.
func (c *Client) ReadValue(ctx context.Context, nodeID string) (interface{}, error) {
	results, err := c.ReadAttributes(ctx, nodeID, ua.AttributeIDValue)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == nil {
		return nil, errors.New("value read returned no results")
	}
	if results[0].Status != ua.StatusOK {
		return nil, fmt.Errorf("value read failed with status: %s", results[0].Status)
	}
	if results[0].Value == nil {
		return nil, errors.New("value read returned a null variant")
	}
	return results[0].Value.Value(), nil
}

func (c *Client) ReadAttributes(ctx context.Context, nodeID string, attributeIDs ...ua.AttributeID) ([]*ua.DataValue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Client == nil {
		return nil, errors.New("client not connected")
	}

	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return nil, err
	}

	nodesToRead := make([]*ua.ReadValueID, len(attributeIDs))
	for i, attrID := range attributeIDs {
		nodesToRead[i] = &ua.ReadValueID{NodeID: id, AttributeID: attrID}
	}

	req := &ua.ReadRequest{NodesToRead: nodesToRead}
	resp, err := c.Client.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) Browse(ctx context.Context, nodeID *ua.NodeID) ([]*ua.ReferenceDescription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Client == nil {
		return nil, errors.New("client not connected")
	}

	req := &ua.BrowseRequest{
		NodesToBrowse: []*ua.BrowseDescription{
			{
				NodeID:          nodeID,
				BrowseDirection: ua.BrowseDirectionForward,
				ReferenceTypeID: ua.NewNumericNodeID(0, 33), // HierarchicalReferences
				IncludeSubtypes: true,
				NodeClassMask:   uint32(ua.NodeClassAll),
				ResultMask:      uint32(ua.BrowseResultMaskAll),
			},
		},
		RequestedMaxReferencesPerNode: 1000,
	}

	resp, err := c.Client.Browse(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Results) > 0 {
		return resp.Results[0].References, nil
	}
	return nil, nil
}

func (c *Client) ReadNodeClass(ctx context.Context, nodeID *ua.NodeID) (ua.NodeClass, error) {
	results, err := c.ReadAttributes(ctx, nodeID.String(), ua.AttributeIDNodeClass)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 || results[0].Value == nil {
		return 0, errors.New("attribute read incomplete")
	}
	if v, ok := results[0].Value.Value().(int32); ok {
		return ua.NodeClass(v), nil
	}
	return 0, fmt.Errorf("unexpected type for NodeClass: %T", results[0].Value.Value())
}
