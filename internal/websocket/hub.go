package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Etapas enviadas aos clientes inscritos em uma avaliação
const (
	StageAnalyzing   = "analyzing"
	StageCompleted   = "completed"
	StageFailed      = "failed"
	StageSyncStarted = "sync_started"
	StageSynced      = "synced"
	StageSyncFailed  = "sync_failed"
)

// Hub mantém os clientes conectados agrupados pelo ID da avaliação que acompanham
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mutex sync.RWMutex

	logger *zerolog.Logger
}

// Client faz a ponte entre a conexão websocket e o hub
type Client struct {
	conn *websocket.Conn

	// Canal de saída com buffer
	Send chan []byte

	AssessmentID string
	RemoteAddr   string

	Hub *Hub

	ConnectedAt time.Time
	LastPing    time.Time
}

// StatusUpdate informa o andamento da análise ou da sincronização
type StatusUpdate struct {
	Type         string      `json:"type"`
	AssessmentID string      `json:"assessment_id"`
	Stage        string      `json:"stage"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Message é uma mensagem genérica do websocket
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	// Precisa ser menor que pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub cria o hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Global(),
	}
}

// Run executa o loop principal do hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.clients[client.AssessmentID] == nil {
		h.clients[client.AssessmentID] = make(map[*Client]bool)
	}
	h.clients[client.AssessmentID][client] = true

	metrics.Get().IncrementWSConnection()
	logger.AuditWebSocket(context.Background(), logger.AuditActionWSConnect, client.RemoteAddr,
		map[string]interface{}{"assessment_id": client.AssessmentID})

	h.logger.Info().
		Str("assessment_id", client.AssessmentID).
		Int("subscribers", len(h.clients[client.AssessmentID])).
		Msg("Cliente websocket registrado")

	client.SendMessage(Message{
		Type:      "connection",
		Data:      map[string]string{"status": "connected", "assessment_id": client.AssessmentID},
		Timestamp: time.Now(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, ok := h.clients[client.AssessmentID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.Send)
	metrics.Get().DecrementWSConnection()
	logger.AuditWebSocket(context.Background(), logger.AuditActionWSDisconnect, client.RemoteAddr,
		map[string]interface{}{"assessment_id": client.AssessmentID})

	if len(clients) == 0 {
		delete(h.clients, client.AssessmentID)
	}

	h.logger.Info().
		Str("assessment_id", client.AssessmentID).
		Int("remaining", len(clients)).
		Msg("Cliente websocket removido")
}

// broadcastMessage envia para todos os clientes conectados
func (h *Hub) broadcastMessage(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, clients := range h.clients {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
				h.dropLocked(id, clients, client)
			}
		}
	}
}

// Broadcast envia a mensagem a todos os inscritos, de qualquer avaliação
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("Falha ao serializar broadcast")
		return
	}
	h.broadcast <- data
}

// dropLocked remove um cliente lento; exige h.mutex travado
func (h *Hub) dropLocked(id string, clients map[*Client]bool, client *Client) {
	h.logger.Warn().
		Str("assessment_id", id).
		Msg("Canal do cliente cheio, encerrando conexão")
	close(client.Send)
	delete(clients, client)
	metrics.Get().DecrementWSConnection()
	if len(clients) == 0 {
		delete(h.clients, id)
	}
}

// SendToAssessment envia a mensagem a todos os clientes inscritos na avaliação
func (h *Hub) SendToAssessment(assessmentID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("assessment_id", assessmentID).
			Msg("Falha ao serializar mensagem")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, exists := h.clients[assessmentID]
	if !exists {
		h.logger.Debug().
			Str("assessment_id", assessmentID).
			Msg("Nenhum cliente inscrito na avaliação")
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
			metrics.Get().IncrementWSMessageOut()
		default:
			h.dropLocked(assessmentID, clients, client)
		}
	}
}

// SendStatus publica a etapa atual de uma avaliação
func (h *Hub) SendStatus(assessmentID string, update StatusUpdate) {
	update.Type = "status"
	update.AssessmentID = assessmentID
	update.Timestamp = time.Now()

	h.SendToAssessment(assessmentID, update)
}

// GetWatchedAssessments lista as avaliações com clientes conectados
func (h *Hub) GetWatchedAssessments() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// GetConnectionCount retorna o total de conexões ativas
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// GetAssessmentConnectionCount retorna quantos clientes acompanham a avaliação
func (h *Hub) GetAssessmentConnectionCount(assessmentID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients[assessmentID])
}

// RegisterClient registra um cliente diretamente (usado em testes)
func (h *Hub) RegisterClient(client *Client) {
	h.registerClient(client)
}

// UnregisterClient remove um cliente diretamente (usado em testes)
func (h *Hub) UnregisterClient(client *Client) {
	h.unregisterClient(client)
}
