package ui

import (
	"encoding/json"
	"fmt"
	"image/color"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/gopcua/opcua/ua"

	"uascope/internal/cert"
	"uascope/internal/controller"
	"uascope/internal/exporter"
	"uascope/internal/graph"
	"uascope/internal/opc"
	"uascope/internal/plot"
)

var (
	// Icon for the root of the tree (the connection itself)
	rootIconResource = fyne.NewStaticResource("root_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<circle cx="12" cy="12" r="10" fill="#E8F5E9"/>
			<path d="M12 2a10 10 0 1 0 0 20 10 10 0 0 0 0-20zm-1 17.93c-3.94-.49-7-3.85-7-7.93s3.06-7.44 7-7.93v15.86zm2-15.86c3.94.49 7 3.85 7 7.93s-3.06 7.44-7 7.93V4.07z" fill="#16a6ff"/>
		</svg>`))

	// Icon for the Server object node
	serverIconResource = fyne.NewStaticResource("server_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 180 180" width="180" height="180">
			<path d="M 45 79 L 90 100.61 L 90 157.39 L 45 179 L 0 157.39 L 0 100.61 Z" fill="#60a917" />
			<path d="M 89 0 L 134 21.61 L 134 78.39 L 89 100 L 44 78.39 L 44 21.61 Z" fill="#a0522d" />
			<path d="M 135 79 L 180 100.61 L 180 154.39 L 135 176 L 90 154.39 L 90 100.61 Z" fill="#1ba1e2" />
		</svg>`))

	// Icon for Variable nodes (a tag)
	tagIconResource = fyne.NewStaticResource("tag_icon.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">
		<defs>
			<linearGradient id="g" x1="0" y1="0" x2="1" y2="1">
			<stop offset="0%" stop-color="#1976D2"/>
			<stop offset="100%" stop-color="#64B5F6"/>
			</linearGradient>
		</defs>
		<path d="M10 24 L74 24 L118 68 L68 118 L24 74 Z" fill="url(#g)"/>
		<circle cx="32" cy="42" r="8" fill="#ffffff"/>
		<path d="M68 118 L118 68" stroke="#000" stroke-width="2"/>
		</svg>`))

	// Icon for Method nodes (play symbol)
	methodIconResource = fyne.NewStaticResource("method_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
		<circle cx="12" cy="12" r="10" fill="#E3F2FD"/>
		<polygon points="10 8 16 12 10 16 10 8" fill="#2196F3"/>
		</svg>`))

	// Icon for Object nodes (closed folder)
	objectIconClosedResource = fyne.NewStaticResource("object_closed_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<path d="M10 4H4c-1.11 0-2 .89-2 2v12c0 1.1.9 2 2 2h16c1.1 0 2-.9 2-2V8c0-1.1-.9-2-2-2h-8l-2-2z" fill="#FFCA28"/>
		</svg>`))

	// Icon for Object nodes (open folder)
	objectIconOpenResource = fyne.NewStaticResource("object_open_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<path d="M20 6h-8l-2-2H4c-1.11 0-1.99.89-1.99 2L2 18c0 1.1.89 2 1.99 2H20c1.1 0 2-.9 2-2V8c0-1.1-.9-2-2-2zm0 12H4V8h16v10z" fill="#FFCA28"/>
		</svg>`))

	// Icon for View nodes (an eye)
	viewIconResource = fyne.NewStaticResource("view_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
		<path d="M12 4.5C7 4.5 2.73 7.61 1 12c1.73 4.39 6 7.5 11 7.5s9.27-3.11 11-7.5C21.27 7.61 17 4.5 12 4.5zm0 10c-2.48 0-4.5-2.02-4.5-4.5S9.52 5.5 12 5.5 16.5 7.52 16.5 10 14.48 14.5 12 14.5z" fill="#64B5F6"/>
		<circle cx="12" cy="10" r="2.5" fill="#1976D2"/>
		</svg>`))

	// Icon for ObjectType and VariableType nodes
	objectTypeIconResource = fyne.NewStaticResource("type_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<rect x="3" y="3" width="18" height="18" rx="2" fill="#E8EAF6"/>
			<rect x="3" y="8" width="18" height="2" fill="#7986CB"/>
			<rect x="8" y="10" width="2" height="11" fill="#7986CB"/>
		</svg>`))

	// Icon for DataType nodes
	dataTypeIconResource = fyne.NewStaticResource("datatype_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<rect x="4" y="4" width="6" height="6" rx="1" fill="#F48FB1"/>
			<rect x="14" y="4" width="6" height="6" rx="1" fill="#80CBC4"/>
			<rect x="4" y="14" width="6" height="6" rx="1" fill="#90CAF9"/>
			<rect x="14" y="14" width="6" height="6" rx="1" fill="#FFE082"/>
		</svg>`))

	// Icon for ReferenceType nodes
	linkIconResource = fyne.NewStaticResource("link_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
		<path d="M17 7h-4v-2h4c1.65 0 3 1.35 3 3s-1.35 3-3 3h-4v-2h4c.55 0 1-.45 1-1s-.45-1-1-1zm-8 8H5c-.55 0-1-.45-1-1s.45-1 1-1h4v-2H5c-1.65 0-3 1.35-3 3s1.35 3 3 3h4v-2zm-1-4h6v-2H8v2z" fill="#78909C"/>
		</svg>`))

	// Icon for the "Objects" folder node
	objectsFolderIconResource = fyne.NewStaticResource("objects_folder_icon_color.svg", []byte(`
		<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">
			<path d="M10 4H4c-1.11 0-2 .89-2 2v12c0 1.1.9 2 2 2h16c1.1 0 2-.9 2-2V8c0-1.1-.9-2-2-2h-8l-2-2z" fill="#2196F3"/>
		</svg>`))
)

// chartFactory adapts a plot.Chart to the graph.CurveFactory interface.
type chartFactory struct {
	chart *plot.Chart
}

func (f chartFactory) AddCurve(label string, col color.Color) graph.RenderHandle {
	return f.chart.AddCurve(label, col)
}

type UI struct {
	app        fyne.App
	window     fyne.Window
	controller *controller.Controller

	endpointEntry  *widget.Entry
	connectBtn     *widget.Button
	configBtn      *widget.Button
	exportBtn      *widget.Button
	statusIcon     *widget.Icon
	apiStatusLabel *widget.Label

	config *opc.Config

	nodeTree       *widget.Tree
	nodeLabelByID  map[string]string
	nodeClassByID  map[string]ua.NodeClass
	nodeMetaByID   map[string]string
	nodeCacheMutex sync.RWMutex
	selectedNodeID string
	virtualRoot    string

	nodeInfoTable *widget.Table
	nodeInfoData  map[string]string
	nodeInfoKeys  []string

	scalarChart *plot.Chart
	arrayChart  *plot.Chart

	channelList      *widget.List
	channelRows      []graph.ChannelSnapshot
	channelRowsMutex sync.RWMutex
	selectedChannel  int
	removeChannelBtn *widget.Button

	plotScalarBtn *widget.Button
	plotArrayBtn  *widget.Button

	windowEntry   *widget.Entry
	intervalEntry *widget.Entry

	logText    *widget.RichText
	logScroll  *container.Scroll
	logMutex   sync.Mutex
	logBuilder *strings.Builder
}

const maxLogSegments = 15000

func NewUI(c *controller.Controller, apiStatus *string) *UI {
	a := app.NewWithID("io.uascope.client")
	a.Settings().SetTheme(&compactTheme{})
	w := a.NewWindow("UaScope - OPC UA Graph Client")
	w.Resize(fyne.NewSize(1200, 800))

	ui := &UI{
		app:             a,
		window:          w,
		controller:      c,
		nodeLabelByID:   make(map[string]string),
		nodeClassByID:   make(map[string]ua.NodeClass),
		nodeMetaByID:    make(map[string]string),
		virtualRoot:     "virtualRoot",
		selectedChannel: -1,
		nodeInfoKeys: []string{
			"NodeID", "NodeClass", "DisplayName",
			"Description", "DataType", "AccessLevel", "Value",
		},
		logBuilder: new(strings.Builder),
		config: &opc.Config{
			EndpointURL:     "opc.tcp://127.0.0.1:4840",
			SecurityPolicy:  "Auto",
			SecurityMode:    "Auto",
			AuthMode:        "Anonymous",
			SessionTimeout:  30,
			ApiPort:         "8080",
			ApiEnabled:      true,
			ConnectTimeout:  5,
			GraphWindow:     opc.DefaultGraphWindow,
			GraphIntervalMS: opc.DefaultGraphIntervalMS,
		},
		apiStatusLabel: widget.NewLabel(*apiStatus),
	}

	ui.loadConfig()

	ui.scalarChart = plot.NewChart("Scalar")
	ui.arrayChart = plot.NewChart("Array")
	c.AttachCharts(chartFactory{ui.scalarChart}, chartFactory{ui.arrayChart})

	ui.initWidgets()
	ui.initCallbacks()
	ui.window.SetOnClosed(func() {
		go ui.controller.Shutdown()
		time.Sleep(500 * time.Millisecond)
	})

	go func() {
		for {
			time.Sleep(1 * time.Second)
			fyne.Do(func() {
				ui.apiStatusLabel.SetText(*apiStatus)
			})
		}
	}()

	go func() {
		for parentID := range c.AddressSpaceUpdateChan {
			children := ui.controller.GetAddressSpaceChildren(parentID)
			ui.nodeCacheMutex.Lock()
			for _, cid := range children {
				node := ui.controller.GetNode(cid)
				if node != nil {
					ui.nodeLabelByID[cid] = node.Name
					ui.nodeMetaByID[cid] = ""
					ui.nodeClassByID[cid] = node.NodeClass
				}
			}
			ui.nodeCacheMutex.Unlock()
			fyne.Do(func() {
				ui.nodeTree.Refresh()
			})
		}
	}()
	ui.window.SetContent(ui.makeLayout())
	if ui.config.AutoConnect {
		go func() {
			time.Sleep(500 * time.Millisecond)
			ui.onConnectClicked()
		}()
	}
	return ui
}

func (ui *UI) Run() {
	ui.window.ShowAndRun()
}

func (ui *UI) GetConfig() *opc.Config {
	return ui.config
}

func (ui *UI) initWidgets() {
	ui.endpointEntry = widget.NewEntry()
	ui.endpointEntry.SetPlaceHolder("opc.tcp://host:4840 or hostname/IP")
	ui.endpointEntry.SetText(ui.config.EndpointURL)
	ui.endpointEntry.OnChanged = func(s string) {
		ui.config.EndpointURL = s
	}
	ui.endpointEntry.OnSubmitted = func(text string) {
		normalized := normalizeEndpoint(text)
		ui.config.EndpointURL = normalized
		ui.endpointEntry.SetText(normalized)
	}

	ui.connectBtn = widget.NewButtonWithIcon("Connect", theme.LoginIcon(), ui.onConnectClicked)
	ui.configBtn = widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), ui.showConfigDialog)
	ui.exportBtn = widget.NewButtonWithIcon("Export", theme.DownloadIcon(), ui.showExportDialog)

	ui.statusIcon = widget.NewIcon(theme.CancelIcon())

	ui.nodeTree = widget.NewTree(
		ui.treeChildrenCallback,
		ui.treeIsBranchCallback,
		func(isBranch bool) fyne.CanvasObject { return newTreeRow(isBranch, ui) },
		ui.treeUpdateCallback,
	)
	ui.nodeTree.Root = ui.virtualRoot
	ui.selectedNodeID = ""

	ui.nodeTree.OnSelected = func(uid widget.TreeNodeID) {
		ui.selectedNodeID = uid
		if uid == ui.virtualRoot {
			return
		}
		if ui.nodeTree.IsBranch(uid) {
			ui.nodeTree.ToggleBranch(uid)
		}
		go ui.controller.ReadNodeAttributes(string(uid))
	}
	ui.nodeTree.OnUnselected = func(uid widget.TreeNodeID) {
		if ui.selectedNodeID == uid {
			ui.selectedNodeID = ""
			ui.resetNodeDetails()
		}
	}

	ui.nodeInfoData = make(map[string]string)
	ui.nodeInfoTable = widget.NewTable(
		func() (int, int) {
			return len(ui.nodeInfoKeys), 2
		},
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Wrapping = fyne.TextWrapWord
			return lbl
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			key := ui.nodeInfoKeys[id.Row]
			if id.Col == 0 {
				lbl.SetText(key)
				lbl.TextStyle = fyne.TextStyle{Bold: true}
			} else {
				lbl.SetText(ui.nodeInfoData[key])
				lbl.TextStyle = fyne.TextStyle{}
			}
			lbl.Alignment = fyne.TextAlignLeading
			lbl.Wrapping = fyne.TextWrapWord
			lbl.Refresh()

			if id.Col == 1 {
				lines := len(strings.Split(lbl.Text, "\n"))
				rowHeight := float32(lines) * (theme.TextSize() + 16)
				ui.nodeInfoTable.SetRowHeight(id.Row, rowHeight)
			}
		},
	)
	ui.nodeInfoTable.SetColumnWidth(0, 110)
	ui.nodeInfoTable.SetColumnWidth(1, 200)

	ui.channelList = widget.NewList(
		func() int {
			ui.channelRowsMutex.RLock()
			defer ui.channelRowsMutex.RUnlock()
			return len(ui.channelRows)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			ui.channelRowsMutex.RLock()
			defer ui.channelRowsMutex.RUnlock()
			if id >= len(ui.channelRows) {
				return
			}
			row := ui.channelRows[id]
			name := row.Name
			if name == "" {
				name = row.NodeID
			}
			obj.(*widget.Label).SetText(fmt.Sprintf("%s  (%s, %s)", name, row.Mode, row.DataType))
		},
	)
	ui.channelList.OnSelected = func(id widget.ListItemID) {
		ui.selectedChannel = id
		ui.removeChannelBtn.Enable()
	}
	ui.channelList.OnUnselected = func(id widget.ListItemID) {
		if ui.selectedChannel == id {
			ui.selectedChannel = -1
			ui.removeChannelBtn.Disable()
		}
	}

	ui.removeChannelBtn = widget.NewButtonWithIcon("Remove", theme.DeleteIcon(), func() {
		ui.channelRowsMutex.RLock()
		var row graph.ChannelSnapshot
		valid := ui.selectedChannel >= 0 && ui.selectedChannel < len(ui.channelRows)
		if valid {
			row = ui.channelRows[ui.selectedChannel]
		}
		ui.channelRowsMutex.RUnlock()
		if !valid {
			return
		}
		mode := graph.ModeScalar
		if row.Mode == graph.ModeArray.String() {
			mode = graph.ModeArray
		}
		go ui.controller.RemoveFromGraph(row.NodeID, mode)
		ui.selectedChannel = -1
		ui.removeChannelBtn.Disable()
	})
	ui.removeChannelBtn.Disable()

	ui.plotScalarBtn = widget.NewButtonWithIcon("Plot Scalar", theme.ContentAddIcon(), func() {
		if ui.selectedNodeID != "" {
			nid := string(ui.selectedNodeID)
			go ui.controller.AddToGraph(nid, graph.ModeScalar)
		}
	})
	ui.plotArrayBtn = widget.NewButtonWithIcon("Plot Array", theme.ContentAddIcon(), func() {
		if ui.selectedNodeID != "" {
			nid := string(ui.selectedNodeID)
			go ui.controller.AddToGraph(nid, graph.ModeArray)
		}
	})
	ui.plotScalarBtn.Disable()
	ui.plotArrayBtn.Disable()

	ui.windowEntry = widget.NewEntry()
	ui.windowEntry.SetText(strconv.Itoa(ui.config.GraphWindow))
	ui.intervalEntry = widget.NewEntry()
	ui.intervalEntry.SetText(strconv.Itoa(ui.config.GraphIntervalMS))

	ui.logText = widget.NewRichText()
	ui.logText.Wrapping = fyne.TextWrapOff
	ui.logText.Segments = []widget.RichTextSegment{&widget.TextSegment{Text: "", Style: widget.RichTextStyleInline}}
	ui.logScroll = container.NewScroll(ui.logText)
	ui.logScroll.SetMinSize(fyne.NewSize(200, 150))
}

func (ui *UI) initCallbacks() {
	c := ui.controller
	go func() {
		for msg := range c.LogChan {
			ts := time.Now().Format("15:04:05")
			fullLine := fmt.Sprintf("[%s] %s", ts, msg)

			newSegments := parseColorTags(fullLine)
			fyne.Do(func() {
				ui.logMutex.Lock()
				defer ui.logMutex.Unlock()
				ui.logBuilder.WriteString(fullLine)
				ui.logBuilder.WriteString("\n")
				ui.logText.Segments = append(ui.logText.Segments, newSegments...)
				if len(ui.logText.Segments) > maxLogSegments {
					startIndex := len(ui.logText.Segments) - (maxLogSegments * 3 / 4)
					ui.logText.Segments = ui.logText.Segments[startIndex:]
				}
				ui.logText.Refresh()
				if ui.logScroll != nil {
					ui.logScroll.ScrollToBottom()
				}
			})
		}
	}()

	c.OnConnectionStateChange = func(connected bool, endpoint string, err error) {
		fyne.Do(func() {
			ui.connectBtn.Enable()
			if connected {
				ui.connectBtn.SetText("Disconnect")
				ui.connectBtn.SetIcon(theme.LogoutIcon())
				ui.statusIcon.SetResource(theme.ConfirmIcon())
				ui.nodeTree.Root = ui.virtualRoot
				ui.nodeTree.OpenBranch(ui.virtualRoot)
			} else {
				ui.connectBtn.SetText("Connect")
				ui.connectBtn.SetIcon(theme.LoginIcon())
				ui.statusIcon.SetResource(theme.CancelIcon())
			}
			ui.statusIcon.Refresh()
		})
	}

	c.OnAddressSpaceReset = func() {
		fyne.Do(func() {
			ui.nodeCacheMutex.Lock()
			ui.nodeLabelByID = make(map[string]string)
			ui.nodeClassByID = make(map[string]ua.NodeClass)
			ui.nodeMetaByID = make(map[string]string)
			ui.nodeCacheMutex.Unlock()

			ui.nodeTree.Root = ""
			ui.nodeTree.Refresh()
		})
	}

	c.OnGraphMembershipChange = func() {
		snaps := c.ChannelSnapshots()
		fyne.Do(func() {
			ui.channelRowsMutex.Lock()
			ui.channelRows = snaps
			ui.channelRowsMutex.Unlock()
			ui.channelList.Refresh()
		})
	}

	c.OnNodeAttributesUpdate = func(attrs *controller.NodeAttributes) {
		fyne.Do(func() {
			if attrs == nil {
				ui.resetNodeDetails()
				return
			}

			ui.nodeInfoData = map[string]string{
				"NodeID":      attrs.NodeID,
				"NodeClass":   attrs.NodeClass,
				"DisplayName": attrs.Name,
				"Description": attrs.Description,
				"DataType":    attrs.DataType,
				"AccessLevel": attrs.AccessLevel,
				"Value":       attrs.Value,
			}
			ui.nodeInfoTable.Refresh()

			if strings.Contains(attrs.NodeClass, "Variable") {
				ui.plotScalarBtn.Enable()
				ui.plotArrayBtn.Enable()
			} else {
				ui.plotScalarBtn.Disable()
				ui.plotArrayBtn.Disable()
			}

			ui.nodeCacheMutex.Lock()
			ui.nodeLabelByID[attrs.NodeID] = attrs.Name
			ui.nodeMetaByID[attrs.NodeID] = fmt.Sprintf("%s, %s", attrs.AccessLevel, attrs.DataType)
			ui.nodeCacheMutex.Unlock()
		})
	}
}

func (ui *UI) resetNodeDetails() {
	ui.nodeInfoData = make(map[string]string)
	ui.nodeInfoTable.Refresh()
	ui.plotScalarBtn.Disable()
	ui.plotArrayBtn.Disable()
}

func (ui *UI) onConnectClicked() {
	if ui.connectBtn.Text == "Connect" {
		endpoint := normalizeEndpoint(ui.endpointEntry.Text)
		ui.endpointEntry.SetText(endpoint)
		ui.config.EndpointURL = endpoint
		ui.connectBtn.SetText("Connecting...")
		ui.connectBtn.Disable()
		go ui.controller.Connect(ui.config)
	} else {
		go ui.controller.Disconnect()
	}
}

func (ui *UI) applyGraphSettings() {
	window, err := strconv.Atoi(strings.TrimSpace(ui.windowEntry.Text))
	if err != nil {
		dialog.ShowError(fmt.Errorf("samples must be a whole number: %w", err), ui.window)
		return
	}
	intervalMS, err := strconv.Atoi(strings.TrimSpace(ui.intervalEntry.Text))
	if err != nil {
		dialog.ShowError(fmt.Errorf("interval must be a whole number of milliseconds: %w", err), ui.window)
		return
	}
	if window < 1 || intervalMS < 1 {
		dialog.ShowError(fmt.Errorf("samples and interval must both be at least 1"), ui.window)
		return
	}
	go func() {
		if err := ui.controller.ApplyGraphSettings(window, time.Duration(intervalMS)*time.Millisecond); err != nil {
			ui.controller.Log(fmt.Sprintf("[red]Apply graph settings failed: %v[-]", err))
			return
		}
		ui.config.GraphWindow = window
		ui.config.GraphIntervalMS = intervalMS
		ui.saveConfig()
	}()
}

func (ui *UI) showConfigDialog() {
	endpointEntry := widget.NewEntry()
	endpointEntry.SetText(ui.config.EndpointURL)

	appURIEntry := widget.NewEntry()
	appURIEntry.SetPlaceHolder("urn:hostname:uascope")
	appURIEntry.SetText(ui.config.ApplicationURI)

	sessionTimeoutEntry := widget.NewEntry()
	sessionTimeoutEntry.SetPlaceHolder("in seconds")
	sessionTimeoutEntry.SetText(fmt.Sprintf("%d", ui.config.SessionTimeout))

	policySelect := widget.NewSelect(
		[]string{"Auto", "None", "Basic128Rsa15", "Basic256", "Basic256Sha256"},
		nil,
	)
	policySelect.SetSelected(ui.config.SecurityPolicy)

	modeSelect := widget.NewSelect(
		[]string{"Auto", "None", "Sign", "SignAndEncrypt"},
		nil,
	)
	modeSelect.SetSelected(ui.config.SecurityMode)

	authModeRadio := widget.NewRadioGroup([]string{"Anonymous", "Username"}, nil)
	authModeRadio.SetSelected(ui.config.AuthMode)
	authModeRadio.Horizontal = true

	userEntry := widget.NewEntry()
	userEntry.SetPlaceHolder("Username")
	userEntry.SetText(ui.config.Username)
	passwordEntry := widget.NewPasswordEntry()
	passwordEntry.SetPlaceHolder("Password")
	passwordEntry.SetText(ui.config.Password)
	userPassContainer := container.NewVBox(userEntry, passwordEntry)

	certFileEntry := widget.NewEntry()
	certFileEntry.SetPlaceHolder("Client certificate file (.der/.crt)")
	certFileEntry.SetText(ui.config.CertFile)
	certBrowseBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err == nil && reader != nil {
				certFileEntry.SetText(reader.URI().Path())
			}
		}, ui.window)
	})
	certRow := container.NewBorder(nil, nil, nil, certBrowseBtn, certFileEntry)

	keyFileEntry := widget.NewEntry()
	keyFileEntry.SetPlaceHolder("Private key file (.key/.pem)")
	keyFileEntry.SetText(ui.config.KeyFile)
	keyBrowseBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err == nil && reader != nil {
				keyFileEntry.SetText(reader.URI().Path())
			}
		}, ui.window)
	})
	keyRow := container.NewBorder(nil, nil, nil, keyBrowseBtn, keyFileEntry)

	generateCertBtn := widget.NewButton("Generate Self-Signed", func() {
		certPath, keyPath, err := cert.GenerateSelfSignedCertificateFiles(nil)
		if err != nil {
			dialog.ShowError(err, ui.window)
			return
		}
		certFileEntry.SetText(certPath)
		keyFileEntry.SetText(keyPath)
		ui.controller.Log(fmt.Sprintf("[green]Generated client certificate at %s[-]", certPath))
	})
	certContainerAll := container.NewVBox(certRow, keyRow, generateCertBtn)

	credHolder := container.NewVBox()
	setCred := func() {
		if authModeRadio.Selected == "Username" {
			credHolder.Objects = []fyne.CanvasObject{userPassContainer}
		} else {
			credHolder.Objects = []fyne.CanvasObject{}
		}
		credHolder.Refresh()
	}
	authModeRadio.OnChanged = func(selected string) { setCred() }
	setCred()

	apiPortEntry := widget.NewEntry()
	apiPortEntry.SetPlaceHolder("e.g., 8080")
	apiPortEntry.SetText(ui.config.ApiPort)

	apiEnabledCheck := widget.NewCheck("Enable API/Web Server", nil)
	apiEnabledCheck.SetChecked(ui.config.ApiEnabled)

	autoConnectCheck := widget.NewCheck("Auto-connect on startup", nil)
	autoConnectCheck.SetChecked(ui.config.AutoConnect)

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetPlaceHolder("in seconds")
	timeoutEntry.SetText(fmt.Sprintf("%.1f", ui.config.ConnectTimeout))

	formItems := []*widget.FormItem{
		widget.NewFormItem("Endpoint URL", endpointEntry),
		widget.NewFormItem("Application URI", appURIEntry),
		widget.NewFormItem("Session Timeout (s)", sessionTimeoutEntry),
		widget.NewFormItem("Connect Timeout (s)", timeoutEntry),
		widget.NewFormItem("Security Policy", policySelect),
		widget.NewFormItem("Security Mode", modeSelect),
		widget.NewFormItem("Certificate", certContainerAll),
		widget.NewFormItem("Authentication", authModeRadio),
		widget.NewFormItem("", credHolder),
		widget.NewFormItem("API Port", apiPortEntry),
		widget.NewFormItem("", apiEnabledCheck),
		widget.NewFormItem("", autoConnectCheck),
	}

	d := dialog.NewForm("Connection Settings", "Save", "Cancel", formItems, func(ok bool) {
		if ok {
			ui.config.EndpointURL = endpointEntry.Text
			ui.endpointEntry.SetText(endpointEntry.Text)
			ui.config.ApplicationURI = appURIEntry.Text
			ui.config.SecurityPolicy = policySelect.Selected
			ui.config.SecurityMode = modeSelect.Selected
			ui.config.AuthMode = authModeRadio.Selected
			ui.config.Username = userEntry.Text
			ui.config.Password = passwordEntry.Text
			ui.config.CertFile = certFileEntry.Text
			ui.config.KeyFile = keyFileEntry.Text
			ui.config.ApiPort = apiPortEntry.Text
			ui.config.ApiEnabled = apiEnabledCheck.Checked
			ui.config.AutoConnect = autoConnectCheck.Checked

			if timeout, err := strconv.ParseFloat(timeoutEntry.Text, 64); err == nil {
				ui.config.ConnectTimeout = timeout
			}
			if sTimeout, err := strconv.ParseUint(sessionTimeoutEntry.Text, 10, 32); err == nil {
				ui.config.SessionTimeout = uint32(sTimeout)
			}

			ui.saveConfig()
			ui.controller.UpdateApiServerState(ui.config)
		}
	}, ui.window)

	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

func (ui *UI) treeChildrenCallback(uid widget.TreeNodeID) []widget.TreeNodeID {
	if uid == ui.virtualRoot {
		return ui.controller.GetAddressSpaceChildren("i=84")
	}
	return ui.controller.GetAddressSpaceChildren(string(uid))
}

func (ui *UI) treeIsBranchCallback(uid widget.TreeNodeID) bool {
	if uid == ui.virtualRoot {
		return true
	}

	ui.nodeCacheMutex.RLock()
	class, ok := ui.nodeClassByID[string(uid)]
	ui.nodeCacheMutex.RUnlock()

	if ok && class == ua.NodeClassVariable {
		return false
	}

	// For unknown or non-variable classes, optimistically treat as branch
	// and trigger a non-blocking browse to populate children.
	if !ui.controller.HasBrowseBeenPerformed(string(uid)) && !ui.controller.IsBrowsing(string(uid)) {
		go ui.controller.Browse(string(uid))
	}

	node := ui.controller.GetNode(string(uid))
	if node != nil {
		return node.HasChildren
	}
	return true
}

func (ui *UI) treeUpdateCallback(uid widget.TreeNodeID, isBranch bool, obj fyne.CanvasObject) {
	tr := obj.(*treeRow)
	tr.nodeID = uid

	ui.nodeCacheMutex.RLock()
	if ncl, ok := ui.nodeClassByID[string(uid)]; ok {
		tr.nodeClass = ncl
	} else {
		tr.nodeClass = ua.NodeClassObject
	}
	ui.nodeCacheMutex.RUnlock()

	tr.isBranch = isBranch
	tr.isOpen = ui.nodeTree.IsBranchOpen(uid)

	ui.nodeCacheMutex.RLock()
	name := ui.nodeLabelByID[string(uid)]
	meta := ui.nodeMetaByID[string(uid)]
	ui.nodeCacheMutex.RUnlock()

	if name == "" {
		if string(uid) == ui.virtualRoot {
			name = "Root"
		} else {
			name = string(uid)
		}
	}
	tr.name.SetText(name)

	if meta != "" {
		tr.meta.SetText(" [" + meta + "]")
	} else {
		tr.meta.SetText("")
	}

	tr.Refresh()
}

type treeRow struct {
	widget.BaseWidget
	nodeID    widget.TreeNodeID
	nodeClass ua.NodeClass
	isBranch  bool
	isOpen    bool
	name      *widget.Label
	meta      *widget.Label
	icon      *widget.Icon
	ui        *UI
}

func newTreeRow(isBranch bool, ui *UI) *treeRow {
	tr := &treeRow{
		isBranch: isBranch,
		name:     widget.NewLabel(""),
		meta:     widget.NewLabel(""),
		icon:     widget.NewIcon(theme.FileIcon()),
		ui:       ui,
	}
	tr.ExtendBaseWidget(tr)
	return tr
}

func (r *treeRow) CreateRenderer() fyne.WidgetRenderer {
	c := container.NewHBox(r.icon, r.name, r.meta)
	return &treeRowRenderer{row: r, objects: []fyne.CanvasObject{c}, layout: c.Layout}
}

type treeRowRenderer struct {
	row     *treeRow
	objects []fyne.CanvasObject
	layout  fyne.Layout
}

func (r *treeRowRenderer) Layout(size fyne.Size)        { r.layout.Layout(r.objects, size) }
func (r *treeRowRenderer) MinSize() fyne.Size           { return r.layout.MinSize(r.objects) }
func (r *treeRowRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *treeRowRenderer) Destroy()                     {}

func (r *treeRowRenderer) Refresh() {
	var iconResource fyne.Resource

	r.row.ui.nodeCacheMutex.RLock()
	nodeName := r.row.ui.nodeLabelByID[string(r.row.nodeID)]
	r.row.ui.nodeCacheMutex.RUnlock()

	if r.row.nodeID == r.row.ui.virtualRoot {
		iconResource = rootIconResource
	} else if nodeName == "Objects" {
		iconResource = objectsFolderIconResource
	} else if nodeName == "Server" {
		iconResource = serverIconResource
	} else {
		if r.row.isBranch {
			switch r.row.nodeClass {
			case ua.NodeClassObject:
				if r.row.isOpen {
					iconResource = objectIconOpenResource
				} else {
					iconResource = objectIconClosedResource
				}
			case ua.NodeClassView:
				iconResource = viewIconResource
			default:
				if r.row.isOpen {
					iconResource = theme.FolderOpenIcon()
				} else {
					iconResource = theme.FolderIcon()
				}
			}
		} else {
			switch r.row.nodeClass {
			case ua.NodeClassVariable:
				iconResource = tagIconResource
			case ua.NodeClassMethod:
				iconResource = methodIconResource
			case ua.NodeClassObjectType, ua.NodeClassVariableType:
				iconResource = objectTypeIconResource
			case ua.NodeClassReferenceType:
				iconResource = linkIconResource
			case ua.NodeClassDataType:
				iconResource = dataTypeIconResource
			default:
				iconResource = theme.FileIcon()
			}
		}
	}

	r.row.icon.SetResource(iconResource)
	r.row.name.Refresh()
	r.row.meta.Refresh()
	canvas.Refresh(r.row)
}

// TappedSecondary shows the per-node context menu with the graph actions.
func (r *treeRow) TappedSecondary(ev *fyne.PointEvent) {
	if r.nodeID == r.ui.virtualRoot {
		return
	}

	nid := string(r.nodeID)
	scalarItem := fyne.NewMenuItem("Plot Scalar", func() {
		go r.ui.controller.AddToGraph(nid, graph.ModeScalar)
	})
	arrayItem := fyne.NewMenuItem("Plot Array", func() {
		go r.ui.controller.AddToGraph(nid, graph.ModeArray)
	})
	if r.nodeClass != ua.NodeClassVariable {
		scalarItem.Disabled = true
		arrayItem.Disabled = true
	}

	m := fyne.NewMenu("", scalarItem, arrayItem)
	widget.ShowPopUpMenuAtPosition(m, r.ui.window.Canvas(), ev.AbsolutePosition)
}

func (ui *UI) showExportDialog() {
	fileTypeRadio := widget.NewRadioGroup([]string{"CSV", "JSON", "Excel"}, nil)
	fileTypeRadio.SetSelected("CSV")
	fileTypeRadio.Horizontal = true

	d := dialog.NewForm("Export Graph Channels", "Export", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Format", fileTypeRadio),
		},
		func(ok bool) {
			if !ok {
				return
			}
			format := fileTypeRadio.Selected
			var filter storage.FileFilter
			var extension string
			switch format {
			case "CSV":
				filter = storage.NewExtensionFileFilter([]string{".csv"})
				extension = ".csv"
			case "JSON":
				filter = storage.NewExtensionFileFilter([]string{".json"})
				extension = ".json"
			default:
				filter = storage.NewExtensionFileFilter([]string{".xlsx"})
				extension = ".xlsx"
			}

			saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, ui.window)
					return
				}
				if writer == nil {
					return
				}
				defer writer.Close()

				filePath := writer.URI().Path()
				go ui.runExport(filePath, format)

			}, ui.window)
			saveDialog.SetFileName("channels" + extension)
			saveDialog.SetFilter(filter)
			saveDialog.Show()
		}, ui.window)
	d.Show()
}

func (ui *UI) runExport(filePath, format string) {
	snaps := ui.controller.ChannelSnapshots()
	if len(snaps) == 0 {
		fyne.CurrentApp().SendNotification(&fyne.Notification{
			Title:   "Export Aborted",
			Content: "No channels are being plotted.",
		})
		ui.controller.Log("[yellow]Export aborted: no tracked channels.[-]")
		return
	}

	var exportErr error
	switch format {
	case "CSV":
		exportErr = exporter.ExportToCSV(filePath, snaps)
	case "JSON":
		exportErr = exporter.ExportToJSON(filePath, snaps)
	default:
		exportErr = exporter.ExportToExcel(filePath, snaps)
	}

	if exportErr != nil {
		fyne.CurrentApp().SendNotification(&fyne.Notification{
			Title:   "Export Failed",
			Content: exportErr.Error(),
		})
		ui.controller.Log(fmt.Sprintf("[red]Export failed: %v[-]", exportErr))
	} else {
		fyne.CurrentApp().SendNotification(&fyne.Notification{
			Title:   "Export Successful",
			Content: "Channels exported to " + filePath,
		})
		ui.controller.Log(fmt.Sprintf("[green]Exported %d channels to %s[-]", len(snaps), filePath))
	}
}

func (ui *UI) makeLayout() fyne.CanvasObject {
	endpointWithStatus := container.NewBorder(nil, nil, nil, ui.statusIcon, ui.endpointEntry)
	connectionCard := widget.NewCard("Endpoint", "",
		container.NewVBox(
			endpointWithStatus,
			container.NewGridWithColumns(3, ui.connectBtn, ui.configBtn, ui.exportBtn),
			ui.apiStatusLabel,
		))

	addressSpaceCard := widget.NewCard("Address Space", "", container.NewScroll(ui.nodeTree))
	leftPanel := container.NewVSplit(connectionCard, addressSpaceCard)
	leftPanel.SetOffset(0.19)

	applyBtn := widget.NewButtonWithIcon("Apply", theme.ViewRefreshIcon(), ui.applyGraphSettings)
	settingsForm := container.NewGridWithColumns(5,
		widget.NewLabel("Samples"), ui.windowEntry,
		widget.NewLabel("Interval (ms)"), ui.intervalEntry,
		applyBtn,
	)

	scalarCard := widget.NewCard("Scalar Graph", "", ui.scalarChart)
	arrayCard := widget.NewCard("Array Graph", "", ui.arrayChart)
	charts := container.NewVSplit(scalarCard, arrayCard)
	charts.SetOffset(0.5)
	graphPanel := container.NewBorder(settingsForm, nil, nil, nil, charts)

	channelToolbar := container.NewHBox(ui.removeChannelBtn)
	channelsCard := widget.NewCard("Channels", "",
		container.NewBorder(channelToolbar, nil, nil, nil, container.NewVScroll(ui.channelList)))

	scroll := container.NewVScroll(ui.nodeInfoTable)
	scroll.SetMinSize(fyne.NewSize(0, 240))

	detailsCard := widget.NewCard("Selected Node Details", "",
		container.NewVBox(
			scroll,
			container.NewGridWithColumns(2, ui.plotScalarBtn, ui.plotArrayBtn),
		),
	)
	clearLogBtn := widget.NewButtonWithIcon("Clear Logs", theme.ContentClearIcon(), ui.clearLogs)
	copyLogBtn := widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), ui.copyLogs)
	logTitle := widget.NewLabelWithStyle("Logs", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	rightBtns := container.NewHBox(copyLogBtn, clearLogBtn)
	header := container.NewBorder(
		nil, nil,
		logTitle,
		rightBtns,
		layout.NewSpacer(),
	)

	logContainer := container.NewBorder(
		header, nil, nil, nil,
		ui.logScroll,
	)

	detailsAndChannels := container.NewVSplit(detailsCard, channelsCard)
	detailsAndChannels.SetOffset(0.55)
	rightPanel := container.NewVSplit(detailsAndChannels, logContainer)
	rightPanel.SetOffset(0.7)

	centerRightPanel := container.NewHSplit(graphPanel, rightPanel)
	centerRightPanel.SetOffset(0.65)

	mainLayout := container.NewHSplit(leftPanel, centerRightPanel)
	mainLayout.SetOffset(0.25)

	return container.NewStack(mainLayout)
}

func (ui *UI) copyLogs() {
	ui.logMutex.Lock()
	text := ui.logBuilder.String()
	ui.logMutex.Unlock()
	clean := regexp.MustCompile(`\[[a-zA-Z]+\]|\[-\]`).ReplaceAllString(text, "")
	ui.window.Clipboard().SetContent(clean)
}

func (ui *UI) clearLogs() {
	ui.logMutex.Lock()
	ui.logBuilder.Reset()
	ui.logText.Segments = []widget.RichTextSegment{
		&widget.TextSegment{Text: "", Style: widget.RichTextStyleInline},
	}
	ui.logMutex.Unlock()
	fyne.Do(func() {
		ui.logText.Refresh()
		ui.logScroll.ScrollToTop()
	})
}

func normalizeEndpoint(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return "opc.tcp://127.0.0.1:4840"
	}
	if strings.Contains(s, "://") {
		return s
	}
	if strings.HasPrefix(s, "[") {
		if _, _, err := net.SplitHostPort(s); err == nil {
			return "opc.tcp://" + s
		}
		return "opc.tcp://" + s + ":4840"
	}
	if host, port, err := net.SplitHostPort(s); err == nil && host != "" && port != "" {
		return "opc.tcp://" + s
	}
	return "opc.tcp://" + s + ":4840"
}

type compactTheme struct{}

func (t *compactTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameBackground && variant == theme.VariantLight {
		return color.NRGBA{R: 245, G: 247, B: 250, A: 255}
	}
	if name == theme.ColorNameDisabled {
		return color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	}
	if name == theme.ColorNameSeparator {
		return color.NRGBA{R: 0, G: 0, B: 0, A: 0}
	}
	if name == theme.ColorNameShadow {
		return color.NRGBA{R: 0, G: 0, B: 0, A: 0}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *compactTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}
func (t *compactTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (t *compactTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 4
	case theme.SizeNameText:
		return 12
	case theme.SizeNameInlineIcon:
		return 14
	case theme.SizeNameHeadingText:
		return 14
	default:
		return theme.DefaultTheme().Size(name)
	}
}

const configName = "uascope_config.json"

func (ui *UI) saveConfig() {
	data, err := json.MarshalIndent(ui.config, "", "  ")
	if err != nil {
		ui.controller.Log(fmt.Sprintf("Failed to marshal config: %v", err))
		return
	}

	exePath, err := os.Executable()
	if err != nil {
		ui.controller.Log(fmt.Sprintf("Failed to get executable path: %v", err))
		return
	}
	exeDir := filepath.Dir(exePath)
	configFilePath := filepath.Join(exeDir, configName)

	err = os.WriteFile(configFilePath, data, 0644)
	if err != nil {
		ui.controller.Log(fmt.Sprintf("Failed to write config file: %v", err))
		return
	}
}

func (ui *UI) loadConfig() {
	exePath, err := os.Executable()
	if err != nil {
		ui.controller.Log(fmt.Sprintf("Failed to get executable path: %v", err))
		ui.saveConfig()
		return
	}
	exeDir := filepath.Dir(exePath)
	configFilePath := filepath.Join(exeDir, configName)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		ui.saveConfig()
		return
	}

	if err := json.Unmarshal(data, ui.config); err != nil {
		ui.controller.Log(fmt.Sprintf("Failed to unmarshal config: %v", err))
	}
	if err := ui.config.Normalize(); err != nil {
		ui.controller.Log(fmt.Sprintf("[red]Invalid saved graph settings, using defaults: %v[-]", err))
		ui.config.GraphWindow = opc.DefaultGraphWindow
		ui.config.GraphIntervalMS = opc.DefaultGraphIntervalMS
	}
}

var themeColorNameMap = map[string]fyne.ThemeColorName{
	"green":  theme.ColorNameSuccess,
	"red":    theme.ColorNameError,
	"blue":   theme.ColorNamePrimary,
	"cyan":   theme.ColorNamePrimary,
	"yellow": theme.ColorNameWarning,
}

func parseColorTags(logText string) []widget.RichTextSegment {
	tagRegex := regexp.MustCompile(`(\[[a-zA-Z]+\]|\[-\])`)
	matches := tagRegex.FindAllStringIndex(logText, -1)
	var segments []widget.RichTextSegment
	lastIndex := 0
	currentStyle := widget.RichTextStyle{ColorName: ""}
	for _, match := range matches {
		tagStart := match[0]
		tagEnd := match[1]
		if tagStart > lastIndex {
			text := logText[lastIndex:tagStart]
			segments = append(segments, &widget.TextSegment{
				Style: currentStyle,
				Text:  text,
			})
		}
		tag := logText[tagStart:tagEnd]
		if tag == "[-]" {
			currentStyle.ColorName = ""
		} else {
			colorName := strings.Trim(tag, "[]")
			if name, ok := themeColorNameMap[colorName]; ok {
				currentStyle.ColorName = name
			} else {
				currentStyle.ColorName = ""
			}
		}
		lastIndex = tagEnd
	}
	if lastIndex < len(logText) {
		text := logText[lastIndex:]
		segments = append(segments, &widget.TextSegment{
			Style: currentStyle,
			Text:  text,
		})
	}
	return segments
}
