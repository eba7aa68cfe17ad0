package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/iuboy/hublog/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	batchErr   error
	propsErr   error
	batchOpts  *azeventhubs.EventDataBatchOptions
	batchCalls int
	propsCalls int
	closeCalls int
}

func (p *fakeProducer) NewEventDataBatch(_ context.Context, opts *azeventhubs.EventDataBatchOptions) (*azeventhubs.EventDataBatch, error) {
	p.batchCalls++
	p.batchOpts = opts
	return nil, p.batchErr
}

func (p *fakeProducer) SendEventDataBatch(context.Context, *azeventhubs.EventDataBatch, *azeventhubs.SendEventDataBatchOptions) error {
	return errors.New("unexpected send")
}

func (p *fakeProducer) GetEventHubProperties(context.Context, *azeventhubs.GetEventHubPropertiesOptions) (azeventhubs.EventHubProperties, error) {
	p.propsCalls++
	return azeventhubs.EventHubProperties{Name: "logs"}, p.propsErr
}

func (p *fakeProducer) Close(context.Context) error {
	p.closeCalls++
	return nil
}

func TestAMQPSinkBatchError(t *testing.T) {
	linkErr := errors.New("link detached")
	p := &fakeProducer{batchErr: linkErr}
	s := newAMQPSink(p, config.EventHubConfig{PartitionKey: "tenant-1"})

	err := s.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, linkErr)
	assert.Equal(t, 1, p.batchCalls, "不应重试")
	require.NotNil(t, p.batchOpts)
	require.NotNil(t, p.batchOpts.PartitionKey)
	assert.Equal(t, "tenant-1", *p.batchOpts.PartitionKey)
}

func TestAMQPSinkClose(t *testing.T) {
	p := &fakeProducer{}
	s := newAMQPSink(p, config.EventHubConfig{})
	assert.Nil(t, s.batchOptions)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, p.closeCalls)

	assert.ErrorIs(t, s.Send(context.Background(), []byte("x")), ErrClosed)
	assert.Zero(t, p.batchCalls)
}

func TestOpenAMQPConfigErrors(t *testing.T) {
	ctx := context.Background()
	_, err := OpenAMQP(ctx, config.EventHubConfig{})
	assert.Error(t, err)

	_, err = OpenAMQP(ctx, config.EventHubConfig{ConnectionString: testConnStr})
	assert.ErrorIs(t, err, ErrNoEventHub)

	_, err = OpenAMQP(ctx, config.EventHubConfig{ConnectionString: testConnStr + ";EntityPath=logs", Name: "audit"})
	assert.ErrorIs(t, err, ErrEntityMismatch)
}

func stubProducer(t *testing.T, p *fakeProducer) *string {
	t.Helper()
	var gotHub string
	orig := newProducer
	newProducer = func(_ string, eventHub string, _ *azeventhubs.ProducerClientOptions) (producerClient, error) {
		gotHub = eventHub
		return p, nil
	}
	t.Cleanup(func() { newProducer = orig })
	return &gotHub
}

func TestOpenAMQPChecksConnection(t *testing.T) {
	t.Run("Reachable", func(t *testing.T) {
		p := &fakeProducer{}
		hub := stubProducer(t, p)

		s, err := OpenAMQP(context.Background(), config.EventHubConfig{ConnectionString: testConnStr + ";EntityPath=logs"})
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.Empty(t, *hub, "连接串带 EntityPath 时不再传名称")
		assert.Equal(t, 1, p.propsCalls)
		assert.Zero(t, p.closeCalls)
	})

	t.Run("Unreachable", func(t *testing.T) {
		dialErr := errors.New("dial tcp: lookup no-such-ns.invalid: no such host")
		p := &fakeProducer{propsErr: dialErr}
		stubProducer(t, p)

		s, err := Open(context.Background(), config.EventHubConfig{ConnectionString: testConnStr, Name: "logs"})
		assert.Nil(t, s)
		assert.ErrorIs(t, err, dialErr)
		assert.Equal(t, 1, p.closeCalls, "失败时释放生产者")
		assert.Zero(t, p.batchCalls)
	})
}

func TestOpenAMQPUnresolvableNamespace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	s, err := Open(ctx, config.EventHubConfig{
		ConnectionString: "Endpoint=sb://no-such-ns.invalid/;SharedAccessKeyName=send;SharedAccessKey=c2VjcmV0PQ==;EntityPath=logs",
	})
	assert.Nil(t, s)
	assert.Error(t, err)
}

func TestOpenUnsupportedTransport(t *testing.T) {
	_, err := Open(context.Background(), config.EventHubConfig{Transport: "websocket"})
	assert.ErrorContains(t, err, "unsupported transport")
}

func TestStringProperties(t *testing.T) {
	assert.Nil(t, stringProperties(nil))
	assert.Equal(t, map[string]any{"env": "prod"}, stringProperties(map[string]string{"env": "prod"}))
}
