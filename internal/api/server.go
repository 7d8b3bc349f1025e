package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"uascope/internal/controller"
	"uascope/internal/exporter"
	"uascope/internal/graph"
	"uascope/internal/opc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *graph.SampleFrame
	// Node IDs the client filters on; empty set means every frame.
	filter map[string]bool
	mu     sync.RWMutex
}

func (c *Client) wants(nodeID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filter) == 0 || c.filter[nodeID]
}

// Hub fans polled sample frames out to the connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *graph.SampleFrame
	register   chan *Client
	unregister chan *Client
	controller controller.NodeManager
	mu         sync.Mutex
	stop       chan struct{}
}

func newHub(ctrl controller.NodeManager) *Hub {
	return &Hub{
		broadcast:  ctrl.GetSampleChan(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		controller: ctrl,
		stop:       make(chan struct{}),
	}
}

func (h *Hub) dropAllClients() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

func (h *Hub) run(context.Context) {
	for {
		// Watch the controller client context so websocket clients close
		// when the OPC UA session goes away.
		var ctrlDone <-chan struct{}
		if cctx := h.controller.GetClientContext(); cctx != nil {
			ctrlDone = cctx.Done()
		}
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case <-ctrlDone:
			log.Println("Hub: OPC UA client context done, closing websocket clients.")
			h.dropAllClients()
			h.broadcast = h.controller.GetSampleChan()
			continue
		case frame, ok := <-h.broadcast:
			if !ok {
				// The sample channel was closed on disconnect. The hub
				// keeps running and re-arms for the next session.
				log.Println("Hub: sample stream closed, closing websocket clients.")
				h.dropAllClients()
				h.broadcast = h.controller.GetSampleChan()
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(frame.NodeID) {
					continue
				}
				select {
				case client.send <- frame:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		case <-h.stop:
			h.dropAllClients()
			return
		}
	}
}

// WebSocketMessage lets stream clients narrow the frames they receive.
type WebSocketMessage struct {
	Action  string   `json:"action"` // "subscribe", "unsubscribe", "subscribe_all"
	NodeIDs []string `json:"node_ids"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		var msg WebSocketMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		c.mu.Lock()
		switch msg.Action {
		case "subscribe":
			for _, nodeID := range msg.NodeIDs {
				c.filter[nodeID] = true
			}
		case "unsubscribe":
			for _, nodeID := range msg.NodeIDs {
				delete(c.filter, nodeID)
			}
		case "subscribe_all":
			c.filter = make(map[string]bool)
		}
		c.mu.Unlock()
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.WriteJSON(frame); err != nil {
			log.Printf("error writing json: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// addErrorStatus maps a rejected graph add to its HTTP status. The manager
// wraps its sentinel errors with %w, so match by identity, not text.
func addErrorStatus(err error) int {
	switch {
	case errors.Is(err, graph.ErrAlreadyTracked):
		return http.StatusConflict
	case errors.Is(err, graph.ErrNotPlottable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseMode(s string) (graph.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scalar":
		return graph.ModeScalar, nil
	case "array":
		return graph.ModeArray, nil
	default:
		return 0, fmt.Errorf("unknown graph mode: %s", s)
	}
}

func requireConnection(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		cctx := hub.controller.GetClientContext()
		if cctx == nil || cctx.Err() != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "OPC UA connection is not active"})
			return
		}
		c.Next()
	}
}

// StartServer initializes and starts the API server. It returns the
// http.Server instance so the controller can track its lifecycle.
func StartServer(ctx context.Context, ctrl controller.NodeManager, apiStatus *string, cfg *opc.Config) *http.Server {
	hub := newHub(ctrl)
	go hub.run(ctx)
	router := gin.Default()

	api := router.Group("/api/v1")
	{
		// Channel listing with full buffered history
		api.GET("/channels", func(c *gin.Context) {
			c.JSON(http.StatusOK, ctrl.ChannelSnapshots())
		})

		// Start plotting a node
		api.POST("/graph", requireConnection(hub), func(c *gin.Context) {
			var req struct {
				NodeID string `json:"node_id" binding:"required"`
				Mode   string `json:"mode"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			mode, err := parseMode(req.Mode)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := ctrl.AddToGraph(req.NodeID, mode); err != nil {
				c.JSON(addErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "tracking", "node_id": req.NodeID, "mode": mode.String()})
		})

		// Stop plotting a node
		api.DELETE("/graph", func(c *gin.Context) {
			nodeID := strings.TrimSpace(c.Query("node_id"))
			if nodeID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "node_id is required"})
				return
			}
			mode, err := parseMode(c.Query("mode"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !ctrl.RemoveFromGraph(nodeID, mode) {
				c.JSON(http.StatusNotFound, gin.H{"error": "node is not tracked on that graph"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "removed", "node_id": nodeID, "mode": mode.String()})
		})

		// One-shot attribute read
		api.GET("/read", requireConnection(hub), func(c *gin.Context) {
			nodeID := strings.TrimSpace(c.Query("node_id"))
			if nodeID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "node_id is required"})
				return
			}
			attrs, err := ctrl.ReadNodeAttributes(nodeID)
			if err != nil {
				status := http.StatusInternalServerError
				if strings.Contains(err.Error(), "not connected") {
					status = http.StatusServiceUnavailable
				}
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, attrs)
		})

		// Export channel histories
		api.GET("/export/channels", func(c *gin.Context) {
			format := strings.ToLower(strings.TrimSpace(c.Query("format")))
			if format == "" {
				format = "json"
			}
			snaps := ctrl.ChannelSnapshots()
			switch format {
			case "csv":
				c.Header("Content-Disposition", "attachment; filename=channels.csv")
				c.Header("Content-Type", "text/csv; charset=utf-8")
				if err := exporter.WriteCSV(c.Writer, snaps); err != nil {
					log.Printf("csv export: %v", err)
				}
			case "json":
				c.JSON(http.StatusOK, snaps)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format: " + format})
			}
		})
	}

	// Live sample stream
	router.GET("/ws/stream", func(c *gin.Context) {
		cctx := hub.controller.GetClientContext()
		if cctx == nil || cctx.Err() != nil {
			c.String(http.StatusServiceUnavailable, "OPC UA connection is not active.")
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Failed to set websocket upgrade: %+v", err)
			return
		}
		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan *graph.SampleFrame, 256),
			filter: make(map[string]bool),
		}
		client.hub.register <- client

		go client.writePump()
		go client.readPump()
	})

	router.GET("/api/v1/ws/clients", func(c *gin.Context) {
		hub.mu.Lock()
		defer hub.mu.Unlock()

		type clientInfo struct {
			RemoteAddr string   `json:"remote_addr"`
			Filter     []string `json:"filter"`
		}
		clientsData := []clientInfo{}
		for client := range hub.clients {
			client.mu.RLock()
			filter := make([]string, 0, len(client.filter))
			for nodeID := range client.filter {
				filter = append(filter, nodeID)
			}
			clientsData = append(clientsData, clientInfo{
				RemoteAddr: client.conn.RemoteAddr().String(),
				Filter:     filter,
			})
			client.mu.RUnlock()
		}
		c.JSON(http.StatusOK, clientsData)
	})

	port := cfg.ApiPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		*apiStatus = "Running on :" + port
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			*apiStatus = "Error: " + err.Error()
			log.Printf("listen: %s\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		close(hub.stop)
		*apiStatus = "API Server Stopped"
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server Shutdown Failed:%+v", err)
		}
	}()

	return srv
}
