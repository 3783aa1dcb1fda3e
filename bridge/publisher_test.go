package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPublisherPublishRecordsLastSent(t *testing.T) {
	mc := NewMockClient()
	p := NewPublisher(mc)

	err := p.Publish("geofc/out/lot-7", []byte("wire bytes"))
	assert.NoError(t, err)

	last, ok := p.LastSent("geofc/out/lot-7")
	assert.True(t, ok)
	assert.Equal(t, []byte("wire bytes"), last)

	published := mc.GetPublishedMessages()
	if len(published) != 1 {
		t.Fatalf("got %d published messages, want 1", len(published))
	}
	assert.Equal(t, "geofc/out/lot-7", published[0].Topic)
	assert.True(t, published[0].Retain)
}

func TestPublisherRejectsWhenDisconnected(t *testing.T) {
	mc := NewMockClient()
	mc.Mock.ExpectedCalls = nil
	mc.On("IsConnected").Return(false)
	p := NewPublisher(mc)

	err := p.Publish("geofc/out/lot-7", []byte("wire bytes"))
	assert.Error(t, err)

	_, ok := p.LastSent("geofc/out/lot-7")
	assert.False(t, ok)
}

func TestPublisherReportsBrokerTimeoutAsError(t *testing.T) {
	mc := NewMockClient()
	mc.Mock.ExpectedCalls = nil
	mc.On("IsConnected").Return(true)
	mc.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(NewPendingMockToken())
	p := NewPublisher(mc)

	err := p.Publish("geofc/out/lot-7", []byte("wire bytes"))
	assert.Error(t, err)

	_, ok := p.LastSent("geofc/out/lot-7")
	assert.False(t, ok)
}

func TestPublisherNilClientIsNoop(t *testing.T) {
	p := NewPublisher(nil)
	err := p.Publish("geofc/out/lot-7", []byte("wire bytes"))
	assert.Error(t, err)
}

func TestPublisherSetQoSAndRetain(t *testing.T) {
	p := NewPublisher(NewMockClient())
	p.SetQoS(1)
	p.SetRetain(false)
	if p.qos != 1 {
		t.Errorf("qos = %d, want 1", p.qos)
	}
	if p.retain {
		t.Error("retain should be false")
	}
}
