package trans

import (
	"errors"
	"fmt"
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/comm"
	"github.com/catalyst-network/catalyst-agent/agent/didcomm"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/stretchr/testify/require"
)

func TestNew_unknownKind(t *testing.T) {
	_, err := New("carrier-pigeon", ":0", nil)
	require.ErrorIs(t, err, ErrSetup)

	tr, err := New(KindHTTP, ":0", nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	tr, err = New(KindWS, ":0", nil)
	require.NoError(t, err)
	require.NotNil(t, tr)
}

func TestFailureJSON(t *testing.T) {
	parseErr := fmt.Errorf("%w: bad payload", didcomm.ErrParse)
	var failure comm.FailureReply
	dto.FromJSON(FailureJSON(parseErr), &failure)
	require.False(t, failure.Success)
	require.Contains(t, failure.Message, "Could not parse message json:")

	otherErr := errors.New("wallet unavailable")
	failure = comm.FailureReply{}
	dto.FromJSON(FailureJSON(otherErr), &failure)
	require.False(t, failure.Success)
	require.Contains(t, failure.Message, "Error processing message:")
	require.Contains(t, failure.Message, "wallet unavailable")
}
