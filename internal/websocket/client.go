package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ServeWS faz o upgrade e inscreve o cliente na avaliação indicada em ?assessment_id=
func (h *Hub) ServeWS(c *gin.Context) {
	assessmentID := strings.TrimSpace(c.Query("assessment_id"))
	if _, err := uuid.Parse(assessmentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "assessment_id inválido",
			"code":    "INVALID_INPUT",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("assessment_id", assessmentID).
			Msg("Falha no upgrade do websocket")
		return
	}

	client := &Client{
		conn:         conn,
		Send:         make(chan []byte, 256),
		AssessmentID: assessmentID,
		RemoteAddr:   c.ClientIP(),
		Hub:          h,
		ConnectedAt:  time.Now(),
		LastPing:     time.Now(),
	}

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump lê mensagens do cliente. Existe no máximo um leitor por conexão.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.LastPing = time.Now()
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error().
					Err(err).
					Str("assessment_id", c.AssessmentID).
					Msg("Conexão websocket encerrada inesperadamente")
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump envia as mensagens do hub. Existe no máximo um escritor por conexão.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
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

			// Junta as mensagens enfileiradas no mesmo frame
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
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

func (c *Client) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Debug().
			Err(err).
			Str("assessment_id", c.AssessmentID).
			Msg("Mensagem do cliente ignorada")
		return
	}

	switch msg.Type {
	case "ping":
		c.SendMessage(Message{Type: "pong", Timestamp: time.Now()})
	default:
		c.Hub.logger.Debug().
			Str("assessment_id", c.AssessmentID).
			Str("message_type", msg.Type).
			Msg("Tipo de mensagem desconhecido")
	}
}

// SendMessage envia uma mensagem só para este cliente. Com o canal cheio a
// mensagem é descartada; quem fecha o canal é sempre o hub.
func (c *Client) SendMessage(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		c.Hub.logger.Error().
			Err(err).
			Str("assessment_id", c.AssessmentID).
			Msg("Falha ao serializar mensagem do cliente")
		return
	}

	select {
	case c.Send <- data:
	default:
		c.Hub.logger.Warn().
			Str("assessment_id", c.AssessmentID).
			Msg("Canal do cliente cheio, mensagem descartada")
	}
}

// GetConnectionInfo descreve a conexão
func (c *Client) GetConnectionInfo() map[string]interface{} {
	return map[string]interface{}{
		"assessment_id": c.AssessmentID,
		"remote_addr":   c.RemoteAddr,
		"connected_at":  c.ConnectedAt,
		"last_ping":     c.LastPing,
	}
}
