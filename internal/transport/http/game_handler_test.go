package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notequiz/internal/domain"
)

func TestWebSocketPlayThrough(t *testing.T) {
	server, store := newTestServer(t, stubCompleter{})

	u := "ws" + server.URL[len("http"):] + "/ws/play?moduleId=1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	state := readState(t, conn, domain.PhaseActive)
	assert.Equal(t, 3, state.TotalQuestions)
	assert.Nil(t, state.CorrectAnswer)

	for i, option := range []int{2, 3, 2} {
		send(t, conn, "answer", map[string]any{"option": option})
		state = readState(t, conn, domain.PhaseFeedback)
		assert.Equal(t, i, state.QuestionIndex)
		assert.True(t, state.Correct)

		send(t, conn, "continue", nil)
		if i < 2 {
			readState(t, conn, domain.PhaseActive)
		}
	}

	var result domain.SessionResult
	readUntil(t, conn, "complete", &result)
	assert.Equal(t, domain.SessionResult{ModuleID: "1", Score: 4500, Total: 3}, result)

	assert.Eventually(t, func() bool {
		m, ok := store.Module("1")
		return ok && m.HighScore == 4500
	}, time.Second, 5*time.Millisecond)
}

func TestWebSocketReportsInvalidMessages(t *testing.T) {
	server, _ := newTestServer(t, stubCompleter{})

	u := "ws" + server.URL[len("http"):] + "/ws/play?moduleId=1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()
	readState(t, conn, domain.PhaseActive)

	send(t, conn, "continue", nil)
	var payload errorPayload
	readUntil(t, conn, "error", &payload)
	assert.Equal(t, domain.ErrAnswerPending.Error(), payload.Message)

	send(t, conn, "answer", map[string]any{"option": 7})
	readUntil(t, conn, "error", &payload)
	assert.Equal(t, domain.ErrOptionNotFound.Error(), payload.Message)

	send(t, conn, "dance", nil)
	readUntil(t, conn, "error", &payload)
	assert.Equal(t, errUnsupportedMessage.Error(), payload.Message)
}

func TestWebSocketUnknownModule(t *testing.T) {
	server, _ := newTestServer(t, stubCompleter{})

	u := "ws" + server.URL[len("http"):] + "/ws/play?moduleId=nope"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func readState(t *testing.T, conn *websocket.Conn, phase domain.Phase) domain.SessionState {
	t.Helper()
	for {
		var state domain.SessionState
		readUntil(t, conn, "state", &state)
		if state.Phase == phase {
			return state
		}
	}
}

// readUntil skips messages until one of type typ arrives and decodes its payload into v.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			require.NoError(t, json.Unmarshal(msg.Payload, v))
			return
		}
	}
}
