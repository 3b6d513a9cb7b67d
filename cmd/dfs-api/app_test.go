package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/broker/messages"
	"github.com/stretchr/testify/require"
)

type fakeApplier struct {
	mu      sync.Mutex
	applied []messages.PaymentStatusChanged
}

func (a *fakeApplier) ApplyStatusUpdate(ctx context.Context, msg messages.PaymentStatusChanged) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, msg)
}

func (a *fakeApplier) snapshot() []messages.PaymentStatusChanged {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]messages.PaymentStatusChanged(nil), a.applied...)
}

type stubConsumer struct {
	values [][]byte
}

func (c *stubConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, v := range c.values {
		if err := handler(nil, v); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunDFSAPI_ServesAndConsumes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	event, err := json.Marshal(messages.PaymentStatusChanged{
		EventID:   "e1",
		PaymentID: "555",
		Status:    "finished",
	})
	require.NoError(t, err)

	applier := &fakeApplier{}
	consumer := &stubConsumer{values: [][]byte{
		[]byte("not json"),
		event,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runDFSAPI(ctx, dfsAPIOpts{
			httpAddr:      "127.0.0.1:0",
			topic:         "t",
			consumerGroup: "g",
			onListen:      func(addr string) { addrCh <- addr },
		}, handler, applier, consumer)
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "ok")

	require.Eventually(t, func() bool {
		applied := applier.snapshot()
		return len(applied) == 1 && applied[0].PaymentID == "555"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting server to stop")
	case err := <-errCh:
		if err != nil && !strings.Contains(err.Error(), "closed") {
			require.ErrorIs(t, err, http.ErrServerClosed)
		}
	}
}
