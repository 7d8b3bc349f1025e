package controller

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua/ua"

	"uascope/internal/graph"
	"uascope/internal/opc"
)

// NodeManager defines the interface the API server uses to reach the
// controller, breaking the import cycle between the two packages.
type NodeManager interface {
	ReadNodeAttributes(nodeID string) (*NodeAttributes, error)
	AddToGraph(nodeID string, mode graph.Mode) error
	RemoveFromGraph(nodeID string, mode graph.Mode) bool
	ChannelSnapshots() []graph.ChannelSnapshot
	GetSampleChan() chan *graph.SampleFrame
	GetClientContext() context.Context
}

// ApiServerStarter is the function signature for starting the API server.
type ApiServerStarter func(ctx context.Context, nodeMgr NodeManager, apiStatus *string, cfg *opc.Config) *http.Server

// AddressSpaceNode is one browsed entry of the server address space.
type AddressSpaceNode struct {
	NodeID      string
	Name        string
	NodeClass   ua.NodeClass
	HasChildren bool
}

// NodeAttributes holds the detail attributes shown for a selected node.
type NodeAttributes struct {
	NodeID      string
	Name        string
	Description string
	NodeClass   string
	DataType    string
	AccessLevel string
	Value       string
	ValueRank   int // -1: scalar; 0 or greater: array
}

type Controller struct {
	client               *opc.Client
	clientLifecycleMutex sync.Mutex
	clientCtx            context.Context
	clientCancel         context.CancelFunc

	mu           sync.RWMutex
	isConnecting bool
	isConnected  bool

	scalarGraph *graph.Manager
	arrayGraph  *graph.Manager

	addressSpaceMutex    sync.RWMutex
	addressSpaceNodes    map[string]*AddressSpaceNode
	addressSpaceChildren map[string][]string

	browsingNodes map[string]bool // browse guard, one in-flight browse per node

	// API server lifecycle, guarded by its own mutex so restarts and
	// shutdown never contend with the data-path locks.
	apiMutex        sync.Mutex
	apiServer       *http.Server
	apiServerCtx    context.Context
	apiServerCancel context.CancelFunc
	apiStatus       *string
	currentConfig   *opc.Config
	apiStarter      ApiServerStarter

	OnConnectionStateChange func(connected bool, endpoint string, err error)
	OnAddressSpaceReset     func()
	OnNodeAttributesUpdate  func(attrs *NodeAttributes)
	OnGraphMembershipChange func()

	// Channels
	AddressSpaceUpdateChan chan string
	SampleChan             chan *graph.SampleFrame
	LogChan                chan string
}

func New() *Controller {
	c := &Controller{
		addressSpaceNodes:      make(map[string]*AddressSpaceNode),
		addressSpaceChildren:   make(map[string][]string),
		browsingNodes:          make(map[string]bool),
		AddressSpaceUpdateChan: make(chan string, 64),
		SampleChan:             make(chan *graph.SampleFrame, 64),
		LogChan:                make(chan string, 256),
	}
	return c
}

// AttachCharts wires the render targets for both graph modes. Must be called
// before any node is added to a graph.
func (c *Controller) AttachCharts(scalar, array graph.CurveFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scalarGraph = graph.NewManager(graph.ModeScalar, scalar, opc.DefaultGraphWindow, c.logf)
	c.arrayGraph = graph.NewManager(graph.ModeArray, array, opc.DefaultGraphWindow, c.logf)
	c.scalarGraph.OnTick = c.broadcastFrames
	c.arrayGraph.OnTick = c.broadcastFrames
}

func (c *Controller) Log(msg string) {
	select {
	case c.LogChan <- msg:
	default:
	}
}

func (c *Controller) logf(format string, args ...interface{}) {
	c.Log(fmt.Sprintf(format, args...))
}

// broadcastFrames pushes polled samples toward the API hub without blocking
// the graph tick. The sends stay under the read lock: Disconnect closes the
// channel under the write lock, so a tick that raced the teardown can never
// send on the closed channel.
func (c *Controller) broadcastFrames(frames []graph.SampleFrame) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range frames {
		f := frames[i]
		select {
		case c.SampleChan <- &f:
		default:
		}
	}
}

func (c *Controller) Connect(cfg *opc.Config) error {
	c.mu.Lock()
	if c.isConnected || c.isConnecting {
		c.mu.Unlock()
		c.Log("[yellow]Connect skipped: already connected or connecting[-]")
		return nil
	}
	c.isConnecting = true
	c.mu.Unlock()
	c.Log(fmt.Sprintf("[cyan]Connecting to %s...[-]", cfg.EndpointURL))

	c.clientLifecycleMutex.Lock()
	if c.clientCancel != nil {
		c.clientCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.clientCtx = ctx
	c.clientCancel = cancel
	c.clientLifecycleMutex.Unlock()

	const attempts = 3
	var lastErr error
	for i := 1; i <= attempts; i++ {
		opts, err := cfg.ToOpcuaOptions()
		if err != nil {
			lastErr = err
			break
		}
		cli, err := opc.NewClient(cfg.EndpointURL, opts...)
		if err != nil {
			lastErr = err
			c.Log(fmt.Sprintf("[red]Connect attempt %d/%d: failed to create client: %v[-]", i, attempts, err))
			if i < attempts {
				time.Sleep(1 * time.Second)
				continue
			}
			break
		}
		connectCtx := ctx
		var tCancel context.CancelFunc
		if cfg.ConnectTimeout > 0 {
			connectCtx, tCancel = context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout*float64(time.Second)))
		}
		err = cli.Connect(connectCtx)
		if tCancel != nil {
			tCancel()
		}
		if err != nil {
			lastErr = err
			if errors.Is(err, context.DeadlineExceeded) {
				c.Log(fmt.Sprintf("[red]Connect attempt %d/%d timeout after %.1fs to %s[-]", i, attempts, cfg.ConnectTimeout, cfg.EndpointURL))
			} else {
				c.Log(fmt.Sprintf("[red]Connect attempt %d/%d failed: %v[-]", i, attempts, err))
			}
			_ = cli.Disconnect(context.Background())
			if i < attempts {
				c.Log("[yellow]Retrying connect...[-]")
				time.Sleep(1 * time.Second)
				continue
			}
			break
		}
		c.mu.Lock()
		c.client = cli
		c.isConnected = true
		c.isConnecting = false
		c.currentConfig = cfg
		c.mu.Unlock()
		c.Log(fmt.Sprintf("[green]Connected to %s[-]", cfg.EndpointURL))
		if c.OnConnectionStateChange != nil {
			c.OnConnectionStateChange(true, cfg.EndpointURL, nil)
		}
		// Start the poll timers with the configured window and period.
		if err := c.ApplyGraphSettings(cfg.GraphWindow, cfg.GraphInterval()); err != nil {
			c.Log(fmt.Sprintf("[red]Invalid graph settings: %v[-]", err))
		}
		// Kick initial browse of RootFolder.
		go c.Browse("i=84")
		return nil
	}
	c.mu.Lock()
	c.isConnecting = false
	c.mu.Unlock()
	if lastErr == nil {
		lastErr = fmt.Errorf("connect failed")
	}
	c.Log(fmt.Sprintf("[red]Connect failed after %d attempts: %v[-]", attempts, lastErr))
	if c.OnConnectionStateChange != nil {
		c.OnConnectionStateChange(false, cfg.EndpointURL, lastErr)
	}
	return lastErr
}

func (c *Controller) Disconnect() {
	// Stop the poll timers before tearing down the session they read from.
	c.mu.RLock()
	scalar, array := c.scalarGraph, c.arrayGraph
	c.mu.RUnlock()
	if scalar != nil {
		scalar.Stop()
	}
	if array != nil {
		array.Stop()
	}

	c.clientLifecycleMutex.Lock()
	if c.clientCancel != nil {
		c.clientCancel()
		c.clientCancel = nil
	}
	if c.client != nil {
		_ = c.client.Disconnect(context.Background())
		c.client = nil
	}
	c.clientCtx = nil
	c.clientLifecycleMutex.Unlock()

	c.mu.Lock()
	c.isConnected = false
	c.isConnecting = false
	oldSamples := c.SampleChan
	c.SampleChan = make(chan *graph.SampleFrame, 64)
	if oldSamples != nil {
		// Closing tells the API hub the session ended; future sessions get
		// a fresh channel. Must happen under the lock so an in-flight
		// broadcast cannot send on the closed channel.
		close(oldSamples)
	}
	c.mu.Unlock()

	c.ClearGraphs()

	c.addressSpaceMutex.Lock()
	c.addressSpaceNodes = make(map[string]*AddressSpaceNode)
	c.addressSpaceChildren = make(map[string][]string)
	c.addressSpaceMutex.Unlock()
	c.mu.Lock()
	c.browsingNodes = make(map[string]bool)
	c.mu.Unlock()

	c.Log("[yellow]Disconnected[-]")
	if c.OnConnectionStateChange != nil {
		c.OnConnectionStateChange(false, "", nil)
	}
	if c.OnAddressSpaceReset != nil {
		c.OnAddressSpaceReset()
	}
}

// Shutdown stops the API server and the graph timers and disconnects the
// OPC UA client.
func (c *Controller) Shutdown() {
	c.apiMutex.Lock()
	if c.apiServerCancel != nil {
		c.apiServerCancel()
	}
	c.apiServer = nil
	c.apiServerCtx = nil
	c.apiServerCancel = nil
	c.apiMutex.Unlock()

	c.Disconnect()
}

func (c *Controller) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *Controller) GetSampleChan() chan *graph.SampleFrame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SampleChan
}

func (c *Controller) GetClientContext() context.Context {
	c.clientLifecycleMutex.Lock()
	defer c.clientLifecycleMutex.Unlock()
	return c.clientCtx
}

// ReadValue satisfies graph.ValueReader so graph sources poll through
// whichever client is currently connected.
func (c *Controller) ReadValue(ctx context.Context, nodeID string) (interface{}, error) {
	c.mu.RLock()
	cli := c.client
	c.mu.RUnlock()
	if cli == nil {
		return nil, errors.New("not connected")
	}
	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return cli.ReadValue(readCtx, nodeID)
}

func (c *Controller) graphFor(mode graph.Mode) *graph.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if mode == graph.ModeArray {
		return c.arrayGraph
	}
	return c.scalarGraph
}

// AddToGraph starts plotting a node on the chart for the given mode. The
// node's display name and data type are read once at add time; values are
// re-read on every poll tick.
func (c *Controller) AddToGraph(nodeID string, mode graph.Mode) error {
	mgr := c.graphFor(mode)
	if mgr == nil {
		return errors.New("graph not attached")
	}
	if !c.IsConnected() {
		return errors.New("not connected")
	}

	name := nodeID
	dataType := ""
	if attrs, err := c.ReadNodeAttributes(nodeID); err == nil && attrs != nil {
		if attrs.Name != "" {
			name = attrs.Name
		}
		dataType = attrs.DataType
	} else if err != nil {
		return fmt.Errorf("read attributes of %s: %w", nodeID, err)
	}

	src := graph.NewNodeSource(c, nodeID, name, dataType)
	if err := mgr.Add(src); err != nil {
		return err
	}
	if c.OnGraphMembershipChange != nil {
		c.OnGraphMembershipChange()
	}
	return nil
}

// RemoveFromGraph stops plotting a node. Returns false when the node was not
// tracked on that graph.
func (c *Controller) RemoveFromGraph(nodeID string, mode graph.Mode) bool {
	mgr := c.graphFor(mode)
	if mgr == nil {
		return false
	}
	removed := mgr.Remove(nodeID)
	if removed && c.OnGraphMembershipChange != nil {
		c.OnGraphMembershipChange()
	}
	return removed
}

// ClearGraphs removes every tracked node from both graphs.
func (c *Controller) ClearGraphs() {
	changed := false
	for _, mgr := range []*graph.Manager{c.graphFor(graph.ModeScalar), c.graphFor(graph.ModeArray)} {
		if mgr == nil {
			continue
		}
		for _, snap := range mgr.Snapshots() {
			if mgr.Remove(snap.NodeID) {
				changed = true
			}
		}
	}
	if changed && c.OnGraphMembershipChange != nil {
		c.OnGraphMembershipChange()
	}
}

// ApplyGraphSettings resizes both graphs and restarts their poll timers.
// All channel history is discarded; tracked nodes stay on their curves.
func (c *Controller) ApplyGraphSettings(window int, interval time.Duration) error {
	c.mu.RLock()
	scalar, array := c.scalarGraph, c.arrayGraph
	cfg := c.currentConfig
	c.mu.RUnlock()
	if scalar == nil || array == nil {
		return errors.New("graph not attached")
	}
	if err := scalar.ResizeAndReset(window, interval); err != nil {
		return err
	}
	if err := array.ResizeAndReset(window, interval); err != nil {
		return err
	}
	if cfg != nil {
		cfg.GraphWindow = window
		cfg.GraphIntervalMS = int(interval / time.Millisecond)
	}
	c.Log(fmt.Sprintf("[green]Graph reset: %d samples at %s[-]", window, interval))
	return nil
}

// ChannelSnapshots returns the tracked channels of both graphs, scalar first.
func (c *Controller) ChannelSnapshots() []graph.ChannelSnapshot {
	snaps := []graph.ChannelSnapshot{}
	if mgr := c.graphFor(graph.ModeScalar); mgr != nil {
		snaps = append(snaps, mgr.Snapshots()...)
	}
	if mgr := c.graphFor(graph.ModeArray); mgr != nil {
		snaps = append(snaps, mgr.Snapshots()...)
	}
	return snaps
}

func (c *Controller) Browse(parentID string) {
	c.mu.Lock()
	if c.browsingNodes[parentID] {
		c.mu.Unlock()
		return
	}
	c.browsingNodes[parentID] = true
	cli := c.client
	c.mu.Unlock()
	ctx := c.GetClientContext()

	clearFlag := func() {
		c.mu.Lock()
		c.browsingNodes[parentID] = false
		c.mu.Unlock()
	}

	if cli == nil || ctx == nil {
		c.Log(fmt.Sprintf("[red]Browse aborted for %s: client not connected[-]", parentID))
		clearFlag()
		return
	}

	nID, err := ua.ParseNodeID(parentID)
	if err != nil {
		c.Log(fmt.Sprintf("[red]Invalid NodeID '%s': %v[-]", parentID, err))
		clearFlag()
		return
	}

	browseCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	refs, err := cli.Browse(browseCtx, nID)
	if err != nil {
		c.Log(fmt.Sprintf("[red]Browse failed for %s: %v[-]", parentID, err))
		clearFlag()
		return
	}

	children := make([]string, 0, len(refs))
	nodes := make(map[string]*AddressSpaceNode, len(refs))
	for _, ref := range refs {
		if ref == nil || ref.NodeID == nil {
			continue
		}
		var childID string
		if ref.NodeID.NodeID != nil {
			childID = ref.NodeID.NodeID.String()
		} else {
			childID = ref.NodeID.String()
		}
		if childID == "" {
			continue
		}
		name := ref.DisplayName.Text
		if name == "" {
			name = childID
		}
		hasChildren := ref.NodeClass != ua.NodeClassVariable && ref.NodeClass != ua.NodeClassMethod
		nodes[childID] = &AddressSpaceNode{
			NodeID:      childID,
			Name:        name,
			NodeClass:   ref.NodeClass,
			HasChildren: hasChildren,
		}
		children = append(children, childID)
	}

	// Stable UI ordering
	sort.Slice(children, func(i, j int) bool {
		return nodes[children[i]].Name < nodes[children[j]].Name
	})

	c.addressSpaceMutex.Lock()
	for id, n := range nodes {
		c.addressSpaceNodes[id] = n
	}
	c.addressSpaceChildren[parentID] = children
	c.addressSpaceMutex.Unlock()

	select {
	case c.AddressSpaceUpdateChan <- parentID:
	default:
	}

	clearFlag()
}

func (c *Controller) HasBrowseBeenPerformed(nodeID string) bool {
	c.addressSpaceMutex.RLock()
	_, ok := c.addressSpaceChildren[nodeID]
	c.addressSpaceMutex.RUnlock()
	return ok
}

func (c *Controller) IsBrowsing(nodeID string) bool {
	c.mu.RLock()
	b := c.browsingNodes[nodeID]
	c.mu.RUnlock()
	return b
}

func (c *Controller) GetAddressSpaceChildren(parentID string) []string {
	c.addressSpaceMutex.RLock()
	ch := append([]string(nil), c.addressSpaceChildren[parentID]...)
	c.addressSpaceMutex.RUnlock()
	return ch
}

func (c *Controller) GetNode(id string) *AddressSpaceNode {
	c.addressSpaceMutex.RLock()
	n := c.addressSpaceNodes[id]
	c.addressSpaceMutex.RUnlock()
	return n
}

// SetApiStarter injects the API server start function to avoid import cycles.
func (c *Controller) SetApiStarter(starter ApiServerStarter) {
	c.apiMutex.Lock()
	c.apiStarter = starter
	c.apiMutex.Unlock()
}

// SetApiStatus binds a status string the UI displays for the API server.
func (c *Controller) SetApiStatus(ptr *string) {
	c.apiMutex.Lock()
	c.apiStatus = ptr
	c.apiMutex.Unlock()
}

// UpdateApiServerState starts or stops the API server based on cfg.ApiEnabled.
func (c *Controller) UpdateApiServerState(cfg *opc.Config) {
	c.mu.Lock()
	c.currentConfig = cfg
	c.mu.Unlock()

	c.apiMutex.Lock()
	defer c.apiMutex.Unlock()

	if c.apiStarter == nil || c.apiStatus == nil {
		return
	}
	if cfg == nil || !cfg.ApiEnabled {
		if c.apiServerCancel != nil {
			c.apiServerCancel()
		}
		c.apiServer = nil
		c.apiServerCtx = nil
		c.apiServerCancel = nil
		*c.apiStatus = "API Disabled"
		return
	}

	// Restart on any update while enabled; the port may have changed.
	if c.apiServerCancel != nil {
		c.apiServerCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.apiServerCtx = ctx
	c.apiServerCancel = cancel
	c.apiServer = c.apiStarter(ctx, c, c.apiStatus, cfg)
}

func (c *Controller) ReadNodeAttributes(nodeID string) (*NodeAttributes, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return nil, errors.New("not connected")
	}
	if _, err := ua.ParseNodeID(nodeID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	attrsToRead := []ua.AttributeID{
		ua.AttributeIDNodeID,
		ua.AttributeIDNodeClass,
		ua.AttributeIDDisplayName,
		ua.AttributeIDDescription,
		ua.AttributeIDAccessLevel,
		ua.AttributeIDUserAccessLevel,
		ua.AttributeIDDataType,
		ua.AttributeIDValue,
		ua.AttributeIDValueRank,
	}

	results, err := client.ReadAttributes(ctx, nodeID, attrsToRead...)
	if err != nil {
		return nil, err
	}

	attrs := &NodeAttributes{ValueRank: -1}
	var rawValue *ua.Variant
	var levelValue uint32
	var userLevelValue uint32

	for i, res := range results {
		if res == nil || res.Status != ua.StatusOK {
			continue
		}
		switch attrsToRead[i] {
		case ua.AttributeIDNodeID:
			if id, ok := res.Value.Value().(*ua.NodeID); ok {
				attrs.NodeID = id.String()
			}
		case ua.AttributeIDNodeClass:
			switch v := res.Value.Value().(type) {
			case ua.NodeClass:
				attrs.NodeClass = v.String()
			case int32:
				attrs.NodeClass = ua.NodeClass(v).String()
			case uint32:
				attrs.NodeClass = ua.NodeClass(v).String()
			}
		case ua.AttributeIDDisplayName:
			if lt, ok := res.Value.Value().(ua.LocalizedText); ok {
				attrs.Name = lt.Text
			} else if lt, ok := res.Value.Value().(*ua.LocalizedText); ok && lt != nil {
				attrs.Name = lt.Text
			}
		case ua.AttributeIDDescription:
			if lt, ok := res.Value.Value().(ua.LocalizedText); ok {
				attrs.Description = lt.Text
			} else if lt, ok := res.Value.Value().(*ua.LocalizedText); ok && lt != nil {
				attrs.Description = lt.Text
			}
		case ua.AttributeIDAccessLevel:
			levelValue = toUint32(res.Value.Value())
		case ua.AttributeIDUserAccessLevel:
			userLevelValue = toUint32(res.Value.Value())
		case ua.AttributeIDDataType:
			if dt, ok := res.Value.Value().(*ua.NodeID); ok {
				attrs.DataType = builtinTypeName(dt)
			}
		case ua.AttributeIDValue:
			rawValue = res.Value
		case ua.AttributeIDValueRank:
			switch v := res.Value.Value().(type) {
			case int32:
				attrs.ValueRank = int(v)
			case int64:
				attrs.ValueRank = int(v)
			}
		}
	}

	if attrs.NodeID == "" {
		attrs.NodeID = nodeID
	}
	// Prefer UserAccessLevel when the server reports one.
	if userLevelValue > 0 {
		attrs.AccessLevel = formatAccessLevel(ua.AccessLevelType(userLevelValue))
	} else if levelValue > 0 {
		attrs.AccessLevel = formatAccessLevel(ua.AccessLevelType(levelValue))
	}
	if rawValue != nil {
		attrs.Value = formatValue(rawValue, attrs.DataType)
	}
	if c.OnNodeAttributesUpdate != nil {
		c.OnNodeAttributesUpdate(attrs)
	}
	return attrs, nil
}

// ReadNodeClass reads only the NodeClass for a given node.
func (c *Controller) ReadNodeClass(nodeID string) (ua.NodeClass, error) {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil {
		return 0, errors.New("not connected")
	}
	nID, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.ReadNodeClass(ctx, nID)
}

func toUint32(v interface{}) uint32 {
	switch n := v.(type) {
	case uint8:
		return uint32(n)
	case uint16:
		return uint32(n)
	case uint32:
		return n
	case int32:
		return uint32(n)
	}
	return 0
}

func formatValue(variant *ua.Variant, dataType string) string {
	if variant == nil {
		return ""
	}
	switch v := variant.Value().(type) {
	case string:
		return v
	case []byte:
		if strings.EqualFold(dataType, "string") {
			return string(v)
		}
		if strings.EqualFold(dataType, "bytestring") {
			return strings.ToLower(hex.EncodeToString(v))
		}
		return fmt.Sprintf("% X", v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05.000")
	case ua.LocalizedText:
		return v.Text
	case *ua.LocalizedText:
		if v != nil {
			return v.Text
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatAccessLevel(level ua.AccessLevelType) string {
	var parts []string
	if level&ua.AccessLevelTypeCurrentRead == ua.AccessLevelTypeCurrentRead {
		parts = append(parts, "Read")
	}
	if level&ua.AccessLevelTypeCurrentWrite == ua.AccessLevelTypeCurrentWrite {
		parts = append(parts, "Write")
	}
	if level&ua.AccessLevelTypeHistoryRead == ua.AccessLevelTypeHistoryRead {
		parts = append(parts, "HistoryRead")
	}
	if level&ua.AccessLevelTypeHistoryWrite == ua.AccessLevelTypeHistoryWrite {
		parts = append(parts, "HistoryWrite")
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}

// builtinTypeName maps a ns=0 DataType NodeID to its builtin type name.
func builtinTypeName(id *ua.NodeID) string {
	if id == nil {
		return ""
	}
	if id.Namespace() != 0 {
		return id.String()
	}
	switch id.IntID() {
	case 1:
		return "Boolean"
	case 2:
		return "SByte"
	case 3:
		return "Byte"
	case 4:
		return "Int16"
	case 5:
		return "UInt16"
	case 6:
		return "Int32"
	case 7:
		return "UInt32"
	case 8:
		return "Int64"
	case 9:
		return "UInt64"
	case 10:
		return "Float"
	case 11:
		return "Double"
	case 12:
		return "String"
	case 13:
		return "DateTime"
	case 14:
		return "Guid"
	case 15:
		return "ByteString"
	case 16:
		return "XmlElement"
	case 17:
		return "NodeId"
	case 18:
		return "ExpandedNodeId"
	case 19:
		return "StatusCode"
	case 20:
		return "QualifiedName"
	case 21:
		return "LocalizedText"
	case 22:
		return "ExtensionObject"
	case 23:
		return "DataValue"
	case 24:
		return "Variant"
	case 25:
		return "DiagnosticInfo"
	case 26:
		return "Number"
	case 27:
		return "Integer"
	case 28:
		return "UInteger"
	default:
		return id.String()
	}
}
