package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGauge struct {
	up, down int
}

func (g *countingGauge) Inc() { g.up++ }
func (g *countingGauge) Dec() { g.down++ }

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	// Give the registration a moment to land in the hub loop.
	time.Sleep(50 * time.Millisecond)

	hub.Publish(UploadEvent{
		Type:     EventUpload,
		ResultID: "r1",
		Filename: "flows.csv",
		RowCount: 100,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got UploadEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, EventUpload, got.Type)
	assert.Equal(t, "r1", got.ResultID)
	assert.Equal(t, 100, got.RowCount)
}

func TestHub_GaugeTracksClients(t *testing.T) {
	gauge := &countingGauge{}
	hub := NewHub(gauge)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gauge.up)

	conn.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gauge.down)

	cancel()
}

func TestHub_PublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	// No Run loop is draining broadcast; fill past the queue to ensure
	// Publish drops rather than blocks.
	for i := 0; i < 200; i++ {
		hub.Publish(FlowEvent{Type: EventFlow, Score: 0.5})
	}
}

func TestFlowEventJSON(t *testing.T) {
	evt := FlowEvent{
		Type:       EventFlow,
		Prediction: "Attack",
		Score:      0.91,
		Anomalous:  true,
		DstPort:    4444,
		Protocol:   "tcp",
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"flow"`)
	assert.Contains(t, string(data), `"dst_port":4444`)
	assert.Contains(t, string(data), `"anomalous":true`)
}
