package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docguard/internal/logging"
	"github.com/fyrsmithlabs/docguard/internal/scan"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNew_RequiresConnection(t *testing.T) {
	_, err := New(nil, "x")
	assert.Error(t, err)
}

func TestNATS_Subject(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	p, err := New(nc, "")
	require.NoError(t, err)
	assert.Equal(t, "docguard.results.fail", p.Subject(scan.StatusFail))
	assert.NoError(t, p.Close(), "borrowed connection is left open")
	assert.False(t, nc.IsClosed())
}

func TestNATS_Publish(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("scans.>")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	p, err := Connect(server.ClientURL(), "scans", nil)
	require.NoError(t, err)

	ctx := logging.WithBatchID(context.Background(), "batch-7")
	ctx = logging.WithRequestID(ctx, "req-1")

	res := scan.FileResult{
		Filename:     "a.pdf",
		Status:       scan.StatusError,
		FailSummary:  []scan.FailSummary{},
		ErrorMessage: scan.UnsupportedMessage,
	}
	require.NoError(t, p.Publish(ctx, res))
	require.NoError(t, p.Close())

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "scans.error", msg.Subject)
	assert.Equal(t, "batch-7", msg.Header.Get(HeaderBatchID))
	assert.Equal(t, "req-1", msg.Header.Get(HeaderRequestID))

	var got scan.FileResult
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "a.pdf", got.Filename)
	assert.Equal(t, scan.StatusError, got.Status)
	assert.Equal(t, scan.UnsupportedMessage, got.ErrorMessage)
}

func TestNATS_PublishAfterClose(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)

	p, err := New(nc, "scans")
	require.NoError(t, err)
	nc.Close()

	err = p.Publish(context.Background(), scan.FileResult{Status: scan.StatusPass})
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "scans", nil)
	assert.Error(t, err)
}
