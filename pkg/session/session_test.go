package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMintLab/libfranka/internal/simctl"
	"github.com/MMintLab/libfranka/pkg/protocol"
)

func startController(t *testing.T, cfg simctl.Config) *simctl.Controller {
	t.Helper()
	if cfg.RateHz == 0 {
		cfg.RateHz = 200
	}
	ctl, err := simctl.Start(cfg)
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	return ctl
}

func TestConnectAndReceive(t *testing.T) {
	ctl := startController(t, simctl.Config{})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, protocol.Version, s.ServerVersion())
	assert.Equal(t, uint16(200), s.ControlRateHz())

	first, err := s.ReceiveState()
	require.NoError(t, err)

	second, err := s.ReceiveState()
	require.NoError(t, err)
	assert.Equal(t, first.Seq+1, second.Seq)
	assert.Greater(t, second.Time, first.Time)
}

func TestConnectIncompatibleVersion(t *testing.T) {
	ctl := startController(t, simctl.Config{RejectHandshake: true})

	_, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.Error(t, err)

	var ive *IncompatibleVersionError
	assert.True(t, errors.As(err, &ive), "want IncompatibleVersionError, got %T", err)
}

func TestConnectRefused(t *testing.T) {
	// Nothing listens on this port.
	_, err := Connect(context.Background(), "127.0.0.1", Config{Port: 1})
	require.Error(t, err)

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "want NetworkError, got %T", err)
	assert.Equal(t, "connect", ne.Op)
}

func TestSequenceGapIsProtocolViolation(t *testing.T) {
	ctl := startController(t, simctl.Config{SkipSeqAt: 3})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)
	defer s.Close()

	var pe *ProtocolError
	for i := 0; i < 10; i++ {
		if _, err := s.ReceiveState(); err != nil {
			require.True(t, errors.As(err, &pe), "want ProtocolError, got %v", err)
			return
		}
	}
	t.Fatal("sequence gap was never reported")
}

func TestReceiveTimeout(t *testing.T) {
	ctl := startController(t, simctl.Config{})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)
	defer s.Close()

	// Stop the stream; the next receive must time out after 5 periods.
	ctl.Close()

	for i := 0; i < 10; i++ {
		_, err = s.ReceiveState()
		if err != nil {
			break
		}
	}
	require.Error(t, err)

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "want NetworkError, got %T", err)
	assert.Equal(t, "receive", ne.Op)
}

func TestSendBeforeReceiveFails(t *testing.T) {
	ctl := startController(t, simctl.Config{})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)
	defer s.Close()

	cmd := protocol.Command{Seq: 1, Kind: protocol.KindJointPositions}
	err = s.SendCommand(&cmd)

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "want NetworkError, got %T", err)
}

func TestSendCommandReachesController(t *testing.T) {
	ctl := startController(t, simctl.Config{})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)
	defer s.Close()

	state, err := s.ReceiveState()
	require.NoError(t, err)

	cmd := protocol.Command{
		Seq:    state.Seq,
		Kind:   protocol.KindJointPositions,
		Motion: [16]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
	}
	require.NoError(t, s.SendCommand(&cmd))

	// The controller folds received joint-position commands into the
	// desired values of later states.
	deadline := 50
	for i := 0; i < deadline; i++ {
		st, err := s.ReceiveState()
		require.NoError(t, err)
		if st.QD[0] == 0.1 {
			return
		}
	}
	t.Fatal("command never reflected in controller state")
}

func TestCloseIsIdempotent(t *testing.T) {
	ctl := startController(t, simctl.Config{})

	s, err := Connect(context.Background(), ctl.Host(), Config{Port: ctl.Port()})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
