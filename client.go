package main

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 512
	maxMessagesPerSec = 120
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// outbound is one queued websocket frame
type outbound struct {
	binary bool
	data   []byte
}

// Client represents a WebSocket connection
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan outbound
	remoteAddr string
	playerID   int
	sessionID  string
	spectating bool
	budget     msgBudget
}

// msgBudget is a fixed one-second window message counter
type msgBudget struct {
	count   int
	resetAt time.Time
}

func (b *msgBudget) allow(now time.Time, perSec int) bool {
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(time.Second)
	}
	b.count++
	return b.count <= perSec
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		id:         uuid.NewString(),
		hub:        hub,
		conn:       conn,
		send:       make(chan outbound, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// Addr identifies the connection for Sender routing
func (c *Client) Addr() string {
	return c.id
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.conns.Release(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("remote", c.remoteAddr).Msg("ws read")
			}
			break
		}

		if !c.budget.allow(time.Now(), maxMessagesPerSec) {
			log.Warn().Str("remote", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		// Binary input: [0x01, mx_hi, mx_lo, my_hi, my_lo, flags, switch, 0]
		if msgType == websocket.BinaryMessage {
			if len(message) == 8 && message[0] == 0x01 {
				c.handleBinaryInput(message)
			}
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if msg.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, msg.data); err != nil {
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

// SendJSON sends a JSON text message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("marshal")
		return
	}
	c.enqueue(outbound{data: data})
}

// SendBinary sends pre-encoded bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	c.enqueue(outbound{binary: true, data: data})
}

func (c *Client) enqueue(msg outbound) {
	// send may already be closed by the hub
	defer func() { recover() }()
	select {
	case c.send <- msg:
	default:
		// Client too slow, drop message
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("remote", c.remoteAddr).Msg("unmarshal")
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgSpectate:
		c.handleSpectate(env.D)
	case MsgResume:
		c.handleResume(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	}
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := truncate(msg.SessionName, maxSessionNameLen)
	if sname == "" {
		sname = "Arena"
	}
	sess, err := c.hub.sessions.CreateSession(sname)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := truncate(msg.Name, maxNameLen)
	if name == "" {
		name = "Player"
	}
	c.handleLeave()

	sess, err := c.hub.sessions.GetSession(msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	player, err := sess.Game.AddPlayer(name, c)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = player.ID
	c.sessionID = sess.ID
	c.welcome(sess, player.ID)
}

func (c *Client) welcome(sess *Session, pid int) {
	ticket, err := c.hub.tickets.Issue(sess.ID, pid)
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("issue ticket")
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:     pid,
		SID:    sess.ID,
		Ticket: ticket,
		Arena:  sess.Game.arena.Name,
	}})
}

func (c *Client) handleSpectate(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.handleLeave()
	sess, err := c.hub.sessions.GetSession(msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	sess.Game.AddSpectator(c)
	c.sessionID = sess.ID
	c.spectating = true
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleResume(data json.RawMessage) {
	var msg ResumeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	claims, err := c.hub.tickets.Parse(msg.Ticket)
	if err != nil {
		c.sendError(ErrTicketInvalid.Error())
		return
	}
	c.handleLeave()
	sess, err := c.hub.sessions.GetSession(claims.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if _, err := sess.Game.Resume(claims.PlayerID, c); err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = claims.PlayerID
	c.sessionID = sess.ID
	c.welcome(sess, claims.PlayerID)
}

// handleBinaryInput decodes a compact 8-byte binary input message
func (c *Client) handleBinaryInput(msg []byte) {
	if c.sessionID == "" || c.playerID == 0 {
		return
	}
	flags := msg[5]
	input := ClientInput{
		MX:     float64(int16(uint16(msg[1])<<8 | uint16(msg[2]))),
		MY:     float64(int16(uint16(msg[3])<<8 | uint16(msg[4]))),
		Left:   flags&inputLeft != 0,
		Right:  flags&inputRight != 0,
		Up:     flags&inputUp != 0,
		Att:    flags&inputAtt != 0,
		Switch: int(msg[6]),
	}
	c.applyInput(input)
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.sessionID == "" || c.playerID == 0 {
		return
	}
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.applyInput(input)
}

func (c *Client) applyInput(input ClientInput) {
	sess, err := c.hub.sessions.GetSession(c.sessionID)
	if err != nil {
		return
	}
	sess.Game.HandleInput(c.playerID, input)
}

// handleLeave removes the client's player or spectator slot for good
func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	if sess, err := c.hub.sessions.GetSession(c.sessionID); err == nil {
		if c.spectating {
			sess.Game.RemoveSpectator(c.Addr())
		} else {
			sess.Game.RemovePlayer(c.playerID)
		}
	}
	c.sessionID = ""
	c.playerID = 0
	c.spectating = false
}

// detach runs when the connection closes: players stay resumable,
// spectators are dropped.
func (c *Client) detach() {
	if c.sessionID == "" {
		return
	}
	sess, err := c.hub.sessions.GetSession(c.sessionID)
	if err != nil {
		return
	}
	if c.spectating {
		sess.Game.RemoveSpectator(c.Addr())
		return
	}
	sess.Game.Detach(c.playerID, c.Addr())
}
