package coordinator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

func TestStartBroadcastAnnounces(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	streamConfig := json.RawMessage(`{"codec":"vp9"}`)
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", streamConfig))

	events := transport.byType(domain.MsgTypeBroadcastStarted)
	require.Len(t, events, 1)
	started := events[0].Payload.(*domain.BroadcastEventMessage)
	assert.Equal(t, "creator-1", started.BroadcasterID)
	assert.JSONEq(t, `{"codec":"vp9"}`, string(started.StreamConfig))

	p, err := c.Presence(ctx)
	require.NoError(t, err)
	assert.True(t, p.Broadcasting)
}

func TestStartBroadcastCreatorOnly(t *testing.T) {
	c, _, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	assert.ErrorIs(t, c.StartBroadcast(ctx, "conn-1", "user-1", nil), ErrForbidden)

	require.NoError(t, promote(c, "user-1"))
	assert.ErrorIs(t, c.StartBroadcast(ctx, "conn-1", "user-1", nil), ErrForbidden)
}

func TestStartBroadcastSecondSourceRejected(t *testing.T) {
	c, _, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))
	assert.ErrorIs(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil), ErrAlreadyBroadcasting)
}

func TestStopBroadcastByOwnerAndByModerator(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))
	require.NoError(t, c.StopBroadcast(ctx, "creator-1"))
	assert.Len(t, transport.byType(domain.MsgTypeBroadcastEnded), 1)

	// Stopping again is a no-op.
	require.NoError(t, c.StopBroadcast(ctx, "creator-1"))
	assert.Len(t, transport.byType(domain.MsgTypeBroadcastEnded), 1)

	// A moderator may stop someone else's broadcast.
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, promote(c, "user-1"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))
	require.NoError(t, c.StopBroadcast(ctx, "user-1"))
	assert.Len(t, transport.byType(domain.MsgTypeBroadcastEnded), 2)
}

func TestStopBroadcastByOtherParticipantRejected(t *testing.T) {
	c, _, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))

	assert.ErrorIs(t, c.StopBroadcast(ctx, "user-1"), ErrForbidden)
}

func TestBroadcastEndsWhenBroadcasterDisconnects(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))

	require.NoError(t, c.Disconnect(ctx, "conn-1"))

	assert.Len(t, transport.byType(domain.MsgTypeBroadcastEnded), 1)

	p, err := c.Presence(ctx)
	require.NoError(t, err)
	assert.False(t, p.Broadcasting)
}

func TestRequestStreamRelayedToBroadcaster(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))

	require.NoError(t, c.RequestStream(ctx, "user-1"))

	relayed := transport.byType(domain.MsgTypeRequestStream)
	require.Len(t, relayed, 1)
	assert.Equal(t, "conn-1", relayed[0].ClientID)
	assert.Equal(t, "user-1", relayed[0].Payload.(*domain.SignalEnvelope).FromID)
}

func TestRequestStreamWithoutBroadcasterSilentlySucceeds(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, c.RequestStream(ctx, "user-1"))
	assert.Empty(t, transport.byType(domain.MsgTypeRequestStream))
}

func TestRelaySignalTargeted(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))

	payload := json.RawMessage(`{"sdp":"v=0"}`)
	require.NoError(t, c.RelaySignal(ctx, "creator-1", domain.SignalEnvelope{
		Type:     domain.MsgTypeOffer,
		TargetID: "user-1",
		Payload:  payload,
	}))

	relayed := transport.byType(domain.MsgTypeOffer)
	require.Len(t, relayed, 1)
	assert.Equal(t, "user-1", relayed[0].UserID)
	env := relayed[0].Payload.(*domain.SignalEnvelope)
	assert.Equal(t, "creator-1", env.FromID)
	assert.Equal(t, "room-1", env.RoomID)
	assert.Equal(t, payload, env.Payload)
}

func TestRelaySignalUntargetedFansOutToRoom(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.StartBroadcast(ctx, "conn-1", "creator-1", nil))

	require.NoError(t, c.RelaySignal(ctx, "user-1", domain.SignalEnvelope{
		Type:    domain.MsgTypeICECandidate,
		Payload: json.RawMessage(`{"candidate":"udp"}`),
	}))

	relayed := transport.byType(domain.MsgTypeICECandidate)
	require.Len(t, relayed, 1)
	assert.Equal(t, "broadcast", relayed[0].Kind)
	assert.Equal(t, "room-1", relayed[0].RoomID)

	env := relayed[0].Payload.(*domain.SignalEnvelope)
	assert.Equal(t, "user-1", env.FromID)
}

func TestRelaySignalMissDroppedSilently(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	transport.missUsers["user-9"] = true

	// Absent target: dropped, not an error.
	require.NoError(t, c.RelaySignal(ctx, "user-1", domain.SignalEnvelope{
		Type:     domain.MsgTypeOffer,
		TargetID: "user-9",
		Payload:  json.RawMessage(`{}`),
	}))

	// Untargeted candidates fan out even before any broadcast starts.
	require.NoError(t, c.RelaySignal(ctx, "user-1", domain.SignalEnvelope{
		Type:    domain.MsgTypeICECandidate,
		Payload: json.RawMessage(`{}`),
	}))

	assert.Empty(t, transport.byType(domain.MsgTypeOffer))
	assert.Len(t, transport.byType(domain.MsgTypeICECandidate), 1)
}

func TestRelaySignalRequiresMembership(t *testing.T) {
	c, _, _, _ := testCoordinator(testRoom("room-1", "creator-1"))

	err := c.RelaySignal(context.Background(), "user-1", domain.SignalEnvelope{
		Type:    domain.MsgTypeOffer,
		Payload: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrNotInRoom)
}
