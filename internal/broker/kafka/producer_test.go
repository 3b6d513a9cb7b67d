package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	last []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.last = append([]kafka.Message{}, msgs...)
	return w.err
}

func TestProducer_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := newProducerWithWriter(fw)

	require.NoError(t, p.Publish(context.Background(), "payment.status", []byte("p1"), []byte(`{"status":"finished"}`)))
	require.Len(t, fw.last, 1)
	require.Equal(t, "payment.status", fw.last[0].Topic)
	require.Equal(t, []byte("p1"), fw.last[0].Key)
}

func TestProducer_Publish_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	p := newProducerWithWriter(fw)

	err := p.Publish(context.Background(), "t", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kafka publish")
}
