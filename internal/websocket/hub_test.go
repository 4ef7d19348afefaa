package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newTestClient(hub *Hub, assessmentID string) *Client {
	return &Client{
		AssessmentID: assessmentID,
		Send:         make(chan []byte, 10),
		Hub:          hub,
		ConnectedAt:  time.Now(),
		LastPing:     time.Now(),
	}
}

// drainWelcomeMessage descarta a mensagem de boas-vindas do registro
func drainWelcomeMessage(client *Client) {
	select {
	case <-client.Send:
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStatusDeliveredOnlyToSubscribers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	stages := []string{StageAnalyzing, StageCompleted, StageFailed, StageSyncStarted, StageSynced, StageSyncFailed}

	properties.Property("status chega apenas aos inscritos da avaliação", prop.ForAll(
		func(target, other, stageIdx int) bool {
			targetID := fmt.Sprintf("asm-%d", target)
			otherID := fmt.Sprintf("asm-%d-x", other)

			hub := NewHub()
			targetClient := newTestClient(hub, targetID)
			otherClient := newTestClient(hub, otherID)
			hub.registerClient(targetClient)
			hub.registerClient(otherClient)
			drainWelcomeMessage(targetClient)
			drainWelcomeMessage(otherClient)

			stage := stages[stageIdx%len(stages)]
			hub.SendStatus(targetID, StatusUpdate{Stage: stage, Message: "ok"})

			var received StatusUpdate
			select {
			case msg := <-targetClient.Send:
				if err := json.Unmarshal(msg, &received); err != nil {
					return false
				}
			case <-time.After(100 * time.Millisecond):
				return false
			}

			select {
			case <-otherClient.Send:
				return false
			case <-time.After(5 * time.Millisecond):
			}

			return received.Type == "status" &&
				received.AssessmentID == targetID &&
				received.Stage == stage &&
				!received.Timestamp.IsZero()
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestWelcomeMessage(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "asm-1")
	hub.RegisterClient(client)

	var msg Message
	if err := json.Unmarshal(<-client.Send, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "connection" {
		t.Errorf("esperado connection, veio %s", msg.Type)
	}
}

func TestConnectionManagement(t *testing.T) {
	hub := NewHub()

	if hub.GetConnectionCount() != 0 {
		t.Fatalf("hub novo deveria estar vazio")
	}

	c1 := newTestClient(hub, "asm-1")
	c2 := newTestClient(hub, "asm-1")
	c3 := newTestClient(hub, "asm-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)
	hub.RegisterClient(c3)

	if got := hub.GetConnectionCount(); got != 3 {
		t.Errorf("total deveria ser 3, veio %d", got)
	}
	if got := hub.GetAssessmentConnectionCount("asm-1"); got != 2 {
		t.Errorf("asm-1 deveria ter 2, veio %d", got)
	}

	hub.UnregisterClient(c1)
	hub.UnregisterClient(c2)
	if got := hub.GetAssessmentConnectionCount("asm-1"); got != 0 {
		t.Errorf("asm-1 deveria ter 0, veio %d", got)
	}

	watched := hub.GetWatchedAssessments()
	if len(watched) != 1 || watched[0] != "asm-2" {
		t.Errorf("só asm-2 deveria restar, veio %v", watched)
	}

	// Remover duas vezes não pode fechar o canal de novo
	hub.UnregisterClient(c1)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	client := &Client{AssessmentID: "asm-1", Send: make(chan []byte, 1), Hub: hub}
	hub.RegisterClient(client)

	// O canal já está cheio com a mensagem de boas-vindas
	hub.SendStatus("asm-1", StatusUpdate{Stage: StageAnalyzing})

	if got := hub.GetAssessmentConnectionCount("asm-1"); got != 0 {
		t.Errorf("cliente lento deveria ter sido removido, restam %d", got)
	}
}

func TestConcurrentSends(t *testing.T) {
	hub := NewHub()

	clients := make([]*Client, 10)
	for i := range clients {
		clients[i] = &Client{AssessmentID: fmt.Sprintf("asm-%d", i), Send: make(chan []byte, 256), Hub: hub}
		hub.RegisterClient(clients[i])
	}

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.SendStatus(fmt.Sprintf("asm-%d", idx), StatusUpdate{Stage: StageCompleted})
		}(i)
	}
	wg.Wait()

	for i, c := range clients {
		drainWelcomeMessage(c)
		select {
		case <-c.Send:
		case <-time.After(100 * time.Millisecond):
			t.Errorf("cliente %d não recebeu o status", i)
		}
	}
}

func TestServeWSRejectsInvalidAssessmentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()

	r := gin.New()
	r.GET("/ws", hub.ServeWS)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?assessment_id=nao-e-uuid", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("esperado 400, veio %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", AuthMiddleware("segredo"), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		url    string
		header string
		want   int
	}{
		{"query", "/ws?token=segredo", "", http.StatusOK},
		{"header", "/ws", "Bearer segredo", http.StatusOK},
		{"ausente", "/ws", "", http.StatusUnauthorized},
		{"errado", "/ws?token=outro", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("esperado %d, veio %d", tc.want, w.Code)
			}
		})
	}
}

func TestBuildWebSocketURL(t *testing.T) {
	got := BuildWebSocketURL("/ws", "abc")
	if got != "/ws?assessment_id=abc" {
		t.Errorf("url inesperada: %s", got)
	}
}
