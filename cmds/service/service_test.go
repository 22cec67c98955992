package service

import (
	"net"
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/prot"
	"github.com/stretchr/testify/require"
)

// occupiedAddr binds a local port for the duration of the test so binds to
// the same address fail.
func occupiedAddr(t *testing.T) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = lis.Close()
	})
	return lis.Addr().String()
}

func TestStartTransports_siblingSurvivesBindFailure(t *testing.T) {
	c := &Cmd{
		HTTPAddr: occupiedAddr(t),
		WSAddr:   "127.0.0.1:0",
	}

	ts, err := c.startTransports(prot.NewProcessor(nil, nil))
	require.NoError(t, err)
	require.Len(t, ts, 1)
	for _, tr := range ts {
		tr.Stop()
	}
}

func TestStartTransports_allFail(t *testing.T) {
	addr := occupiedAddr(t)
	c := &Cmd{HTTPAddr: addr, WSAddr: addr}

	_, err := c.startTransports(prot.NewProcessor(nil, nil))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := &Cmd{}
	require.Error(t, c.Validate())

	c.HostAddr = "http://agent.example.com"
	require.Error(t, c.Validate())

	c.HTTPAddr = ":8080"
	require.NoError(t, c.Validate())

	c.BackupName = "backup"
	require.Error(t, c.Validate())
	c.StoragePath = "records.bolt"
	require.NoError(t, c.Validate())

	c.BackupTime = "25:70"
	require.Error(t, c.Validate())
	c.BackupTime = "03:00"
	require.NoError(t, c.Validate())
}
