package transport

import (
	"bufio"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(4)
	assert.False(t, q.HasData())

	q.Push([]byte("one"))
	q.Push([]byte("two"))
	require.True(t, q.HasData())

	buf := make([]byte, 16)
	n, ok := q.ReadData(buf)
	require.True(t, ok)
	assert.Equal(t, "one", string(buf[:n]))
	n, ok = q.ReadData(buf)
	require.True(t, ok)
	assert.Equal(t, "two", string(buf[:n]))

	_, ok = q.ReadData(buf)
	assert.False(t, ok)
}

func TestQueue_Truncates(t *testing.T) {
	q := NewQueue(4)
	q.Push([]byte("CALIBRATE_RESET"))

	buf := make([]byte, 9)
	n, ok := q.ReadData(buf)
	require.True(t, ok)
	assert.Equal(t, "CALIBRATE", string(buf[:n]))
	assert.False(t, q.HasData(), "the rest of a truncated message is discarded")
}

func TestQueue_CopiesAndDropsOldest(t *testing.T) {
	q := NewQueue(2)
	msg := []byte("a")
	q.Push(msg)
	msg[0] = 'z'
	q.Push([]byte("b"))
	q.Push([]byte("c"))
	assert.Equal(t, 2, q.Len())

	buf := make([]byte, 1)
	q.ReadData(buf)
	assert.Equal(t, "b", string(buf))
	q.ReadData(buf)
	assert.Equal(t, "c", string(buf))
}

func TestDiscard(t *testing.T) {
	var tr Transport = Discard{}
	tr.Output([]byte("A0\n"))
	assert.False(t, tr.HasData())
	_, ok := tr.ReadData(make([]byte, 4))
	assert.False(t, ok)
	assert.NoError(t, tr.Close())
}

// pipePort is a serial port backed by two pipes.
type pipePort struct {
	*io.PipeReader
	*io.PipeWriter
}

func (p pipePort) Close() error {
	p.PipeReader.Close()
	return p.PipeWriter.Close()
}

func TestSerial(t *testing.T) {
	portR, hostW := io.Pipe()
	hostR, portW := io.Pipe()

	s := NewSerial(pipePort{PipeReader: portR, PipeWriter: portW})
	defer s.Close()

	go hostW.Write([]byte("CALIBRATE_START\r\n\nCALIBRATE_STOP\n"))
	require.Eventually(t, func() bool { return s.Len() == 2 }, time.Second, 5*time.Millisecond)

	buf := make([]byte, 32)
	n, _ := s.ReadData(buf)
	assert.Equal(t, "CALIBRATE_START", string(buf[:n]))
	n, _ = s.ReadData(buf)
	assert.Equal(t, "CALIBRATE_STOP", string(buf[:n]))

	report := []byte("A10B20\n")
	s.Output(report)
	report[0] = 'X'

	line, err := bufio.NewReader(hostR).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "A10B20\n", line)
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket_BroadcastsReports(t *testing.T) {
	ws := NewWebSocket()
	srv := httptest.NewServer(ws)
	defer srv.Close()
	defer ws.Close()

	a := dialWS(t, srv)
	b := dialWS(t, srv)
	require.Eventually(t, func() bool { return ws.Clients() == 2 }, time.Second, 5*time.Millisecond)

	ws.Output([]byte("A100B200\n"))

	for _, c := range []*websocket.Conn{a, b} {
		c.SetReadDeadline(time.Now().Add(time.Second))
		kind, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, kind)
		assert.Equal(t, "A100B200\n", string(msg))
	}
}

func TestWebSocket_QueuesInbound(t *testing.T) {
	ws := NewWebSocket()
	srv := httptest.NewServer(ws)
	defer srv.Close()
	defer ws.Close()

	c := dialWS(t, srv)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("CALIBRATE_RESET")))
	require.NoError(t, c.WriteMessage(websocket.BinaryMessage, []byte{0x01}))
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("CALIBRATE_STOP")))

	require.Eventually(t, func() bool { return ws.Len() == 2 }, time.Second, 5*time.Millisecond)
	buf := make([]byte, 32)
	n, ok := ws.ReadData(buf)
	require.True(t, ok)
	assert.Equal(t, "CALIBRATE_RESET", string(buf[:n]))
}

func TestWebSocket_DropsClosedHosts(t *testing.T) {
	ws := NewWebSocket()
	srv := httptest.NewServer(ws)
	defer srv.Close()
	defer ws.Close()

	c := dialWS(t, srv)
	require.Eventually(t, func() bool { return ws.Clients() == 1 }, time.Second, 5*time.Millisecond)
	c.Close()

	require.Eventually(t, func() bool {
		ws.Output([]byte("A0\n"))
		return ws.Clients() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestListenWebSocket(t *testing.T) {
	ws, err := ListenWebSocket("127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, ws.Close())
}

func TestWebSocket_StalledHostMissesReports(t *testing.T) {
	ws := NewWebSocket()
	defer ws.Close()

	// no writer goroutine drains this host
	stalled := newWSClient(nil)
	ws.mu.Lock()
	ws.clients[stalled] = struct{}{}
	ws.mu.Unlock()

	report := []byte("A0\n")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < wsBacklog+3; i++ {
			report[1] = byte('0' + i)
			ws.Output(report)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Output blocked on a host that never drains")
	}

	require.Len(t, stalled.out, wsBacklog)
	assert.Equal(t, "A0\n", string(<-stalled.out), "queued reports are copies, the newest are dropped")
	assert.Equal(t, 1, ws.Clients())
}

func TestWebSocket_SlowHostDoesNotDelayOthers(t *testing.T) {
	ws := NewWebSocket()
	srv := httptest.NewServer(ws)
	defer srv.Close()
	defer ws.Close()

	stalled := newWSClient(nil)
	ws.mu.Lock()
	ws.clients[stalled] = struct{}{}
	ws.mu.Unlock()

	c := dialWS(t, srv)
	require.Eventually(t, func() bool { return ws.Clients() == 2 }, time.Second, 5*time.Millisecond)

	for i := 0; i < wsBacklog+1; i++ {
		ws.Output([]byte("B4095\n"))
	}
	for i := 0; i < wsBacklog; i++ {
		c.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "B4095\n", string(msg))
	}
}
