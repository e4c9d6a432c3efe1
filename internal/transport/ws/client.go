package ws

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/faru128/social-deduction-game/internal/app"
	"github.com/faru128/social-deduction-game/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client is one WebSocket connection. It resolves the player's identity on
// first contact, routes inbound commands to the player's session and drains
// outbound events through a buffered send channel so a slow peer can never
// stall lobby processing.
type Client struct {
	conn     *websocket.Conn
	store    *app.Store
	registry *app.Registry
	session  *app.Session // nil until the player creates or joins a lobby
	playerID string       // empty until the first message resolves it
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, store *app.Store, registry *app.Registry, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		store:    store,
		registry: registry,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Send implements app.ClientConnection. It enqueues without blocking; when
// the buffer is full the message is dropped and the disconnect path cleans
// up eventually.
func (c *Client) Send(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. On exit the player
// is marked disconnected in their session, which keeps their seat and game
// state for a later reconnect.
func (c *Client) readPump() {
	defer func() {
		if session := c.currentSession(); session != nil && c.playerID != "" {
			session.Disconnect(c.playerID, c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket
// connection, batching queued events into one newline-delimited frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes one inbound message. Unparseable input is dropped
// and the connection stays open.
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("malformed message dropped", "error", err)
		return
	}

	c.resolveIdentity(msg)

	switch msg.Type {
	case MsgReconnect:
		// identity already resolved above; the client follows up with
		// joinLobby to re-attach and resynchronize
	case MsgCreateLobby:
		c.handleCreateLobby(msg)
	case MsgJoinLobby:
		c.handleJoinLobby(msg)
	case MsgStartGame:
		c.handleStartGame(msg)
	case MsgSubmitClue:
		c.handleSubmitClue(msg)
	case MsgChat:
		c.handleChat(msg)
	case MsgSubmitVote:
		c.handleSubmitVote(msg)
	case MsgReturnToLobby:
		c.handleReturnToLobby()
	default:
		c.logger.Warn("unknown message type", "type", msg.Type)
	}
}

// resolveIdentity establishes this connection's player identity. A
// reconnect claim is honored when it names a known member under the same
// name; any other first contact mints a fresh identity. Either way the
// resolved identity is acknowledged with a connected event.
func (c *Client) resolveIdentity(msg ClientMessage) {
	if msg.Type == MsgReconnect {
		c.setPlayerID(c.registry.Resolve(msg.PlayerID, msg.PlayerName))
		c.session = nil
		c.Send(domain.NewConnectedEvent(c.playerID))
		return
	}

	if c.playerID == "" {
		c.setPlayerID(c.registry.Resolve(msg.PlayerID, msg.Name))
		c.Send(domain.NewConnectedEvent(c.playerID))
	}
}

// setPlayerID stores the identity under the mutex; Send reads it from other
// goroutines while holding the same lock
func (c *Client) setPlayerID(id string) {
	c.mu.Lock()
	c.playerID = id
	c.mu.Unlock()
}

// currentSession returns the session this player belongs to, re-locating it
// through the store after a reconnect
func (c *Client) currentSession() *app.Session {
	if c.session != nil {
		return c.session
	}
	if c.playerID == "" {
		return nil
	}
	if session, ok := c.store.FindByMember(c.playerID); ok {
		c.session = session
		return session
	}
	return nil
}

func (c *Client) handleCreateLobby(msg ClientMessage) {
	if msg.Name == "" {
		c.sendError("Name is required")
		return
	}

	session, err := c.store.Create()
	if err != nil {
		c.logger.Error("failed to create lobby", "error", err)
		c.sendError("Failed to create lobby")
		return
	}

	if err := session.Join(c.playerID, msg.Name, c); err != nil {
		c.sendError(err.Error())
		return
	}
	c.session = session

	c.Send(domain.NewLobbyCreatedEvent(session.Code(), session.Roster()))
}

func (c *Client) handleJoinLobby(msg ClientMessage) {
	if msg.Name == "" {
		c.sendError("Name is required")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.LobbyCode))
	session, err := c.store.Find(code)
	if err != nil {
		c.sendError("Lobby not found")
		return
	}

	if err := session.Join(c.playerID, msg.Name, c); err != nil {
		switch err {
		case domain.ErrLobbyFull:
			c.sendError("Lobby full")
		case domain.ErrGameInProgress:
			c.sendError("Game already started")
		default:
			c.sendError(err.Error())
		}
		return
	}
	c.session = session
}

func (c *Client) handleStartGame(msg ClientMessage) {
	session := c.currentSession()
	if session == nil {
		c.logger.Debug("start game without lobby", "playerID", c.playerID)
		return
	}

	err := session.Start(c.playerID, msg.ClueTime, msg.DiscussionTime, msg.VotingTime)
	if err != nil {
		switch err {
		case domain.ErrNotHost:
			c.sendError("Only the host can start the game")
		case domain.ErrInsufficientPlayers:
			c.sendError("Need at least 2 players")
		case domain.ErrInvalidTransition:
			c.sendError("Game already started")
		default:
			c.sendError(err.Error())
		}
	}
}

func (c *Client) handleSubmitClue(msg ClientMessage) {
	session := c.currentSession()
	if session == nil {
		return
	}
	session.SubmitClue(c.playerID, msg.Clue)
}

func (c *Client) handleChat(msg ClientMessage) {
	session := c.currentSession()
	if session == nil {
		return
	}
	session.Chat(c.playerID, msg.Message)
}

func (c *Client) handleSubmitVote(msg ClientMessage) {
	session := c.currentSession()
	if session == nil {
		return
	}
	if err := session.SubmitVote(c.playerID, msg.Vote); err != nil {
		c.sendError("Invalid vote")
	}
}

func (c *Client) handleReturnToLobby() {
	session := c.currentSession()
	if session == nil {
		return
	}
	session.ReturnToLobby(c.playerID)
}

// sendError reports a failure to this connection only
func (c *Client) sendError(message string) {
	c.Send(domain.NewErrorEvent(message))
}
