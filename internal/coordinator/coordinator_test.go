package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

func TestJoinAdmitsAndAnnounces(t *testing.T) {
	c, transport, persist, _ := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))

	joinedEvents := transport.byType(domain.MsgTypeUserJoined)
	require.Len(t, joinedEvents, 1)
	joined := joinedEvents[0].Payload.(*domain.UserJoinedMessage)
	assert.Equal(t, "user-1", joined.UserID)
	assert.Equal(t, "Ava", joined.DisplayName)

	updates := transport.byType(domain.MsgTypeParticipantsUpdated)
	require.Len(t, updates, 1)
	update := updates[0].Payload.(*domain.ParticipantsUpdatedMessage)
	assert.Equal(t, 1, update.ParticipantCount)
	require.Len(t, update.Participants, 1)
	assert.Equal(t, "user-1", update.Participants[0].UserID)

	saved, ok := persist.lastParticipant("user-1")
	require.True(t, ok)
	assert.True(t, saved.IsActive)
	assert.Equal(t, domain.RoleParticipant, saved.Role)
}

func TestJoinCreatorGetsCreatorRole(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))

	update := transport.byType(domain.MsgTypeParticipantsUpdated)[0].Payload.(*domain.ParticipantsUpdatedMessage)
	assert.Equal(t, domain.RoleCreator, update.Participants[0].Role)
}

func TestJoinInactiveRoomRejected(t *testing.T) {
	room := testRoom("room-1", "creator-1")
	room.IsActive = false
	c, transport, _, _ := testCoordinator(room)

	err := join(c, "conn-1", "user-1", "Ava")
	assert.ErrorIs(t, err, ErrRoomInactive)
	assert.Empty(t, transport.byType(domain.MsgTypeUserJoined))
}

func TestJoinFullRoomRejected(t *testing.T) {
	room := testRoom("room-1", "creator-1")
	room.MaxParticipants = 2
	c, _, _, _ := testCoordinator(room)

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, join(c, "conn-2", "user-2", "Ben"))

	err := join(c, "conn-3", "user-3", "Cal")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinFullRoomReportedBeforeBan(t *testing.T) {
	room := testRoom("room-1", "creator-1")
	room.MaxParticipants = 2
	c, _, _, _ := testCoordinator(room)
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "creator-1", "Host"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.Moderate(ctx, ModerateRequest{
		ModeratorID: "creator-1",
		TargetID:    "user-2",
		Action:      domain.ActionBan,
	}))

	// A banned user hitting a full room sees capacity first.
	err := join(c, "conn-3", "user-2", "Ben")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinSecondConnectionNotCountedTwice(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))

	// Presence is per user; the second connection announces nothing.
	assert.Len(t, transport.byType(domain.MsgTypeUserJoined), 1)

	p, err := c.Presence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Room.ParticipantCount)
}

func TestJoinFullRoomAllowsExistingMemberNewConnection(t *testing.T) {
	room := testRoom("room-1", "creator-1")
	room.MaxParticipants = 1
	c, _, _, _ := testCoordinator(room)

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
}

func TestLeaveAnnouncesAndAccruesTime(t *testing.T) {
	c, transport, persist, clock := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	clock.Advance(90 * time.Second)
	require.NoError(t, c.Leave(context.Background(), "user-1"))

	leftEvents := transport.byType(domain.MsgTypeUserLeft)
	require.Len(t, leftEvents, 1)
	assert.Equal(t, "user-1", leftEvents[0].Payload.(*domain.UserLeftMessage).UserID)

	saved, ok := persist.lastParticipant("user-1")
	require.True(t, ok)
	assert.False(t, saved.IsActive)
	require.NotNil(t, saved.LeftAt)
	assert.Equal(t, int64(90), saved.TotalTimeSpent)
}

func TestLeaveIsIdempotent(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, c.Leave(context.Background(), "user-1"))
	require.NoError(t, c.Leave(context.Background(), "user-1"))
	require.NoError(t, c.Leave(context.Background(), "never-joined"))

	assert.Len(t, transport.byType(domain.MsgTypeUserLeft), 1)
}

func TestRejoinAccumulatesTimeAcrossVisits(t *testing.T) {
	c, _, persist, clock := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	clock.Advance(60 * time.Second)
	require.NoError(t, c.Leave(ctx, "user-1"))

	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	clock.Advance(30 * time.Second)
	require.NoError(t, c.Leave(ctx, "user-1"))

	saved, ok := persist.lastParticipant("user-1")
	require.True(t, ok)
	assert.Equal(t, int64(90), saved.TotalTimeSpent)
}

func TestDisconnectLastConnectionLeaves(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, c.Disconnect(ctx, "conn-1"))

	assert.Len(t, transport.byType(domain.MsgTypeUserLeft), 1)

	p, err := c.Presence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Room.ParticipantCount)
}

func TestDisconnectKeepsUserWithRemainingConnection(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, join(c, "conn-2", "user-1", "Ava"))
	require.NoError(t, c.Disconnect(ctx, "conn-1"))

	assert.Empty(t, transport.byType(domain.MsgTypeUserLeft))

	p, err := c.Presence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Room.ParticipantCount)
}

func TestDisconnectUnknownConnectionIsNoOp(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, c.Disconnect(context.Background(), "conn-unknown"))
	assert.Empty(t, transport.byType(domain.MsgTypeUserLeft))
}

func TestTypingRequiresMembership(t *testing.T) {
	c, transport, _, _ := testCoordinator(testRoom("room-1", "creator-1"))
	ctx := context.Background()

	assert.ErrorIs(t, c.Typing(ctx, "user-1", true), ErrNotInRoom)

	require.NoError(t, join(c, "conn-1", "user-1", "Ava"))
	require.NoError(t, c.Typing(ctx, "user-1", true))

	events := transport.byType(domain.MsgTypeUserTyping)
	require.Len(t, events, 1)
	assert.True(t, events[0].Payload.(*domain.UserTypingMessage).IsTyping)
}

func TestPresenceSortsByJoinTime(t *testing.T) {
	c, _, _, clock := testCoordinator(testRoom("room-1", "creator-1"))

	require.NoError(t, join(c, "conn-1", "user-b", "Ben"))
	clock.Advance(time.Second)
	require.NoError(t, join(c, "conn-2", "user-a", "Ava"))

	p, err := c.Presence(context.Background())
	require.NoError(t, err)
	require.Len(t, p.Participants, 2)
	assert.Equal(t, "user-b", p.Participants[0].UserID)
	assert.Equal(t, "user-a", p.Participants[1].UserID)
}
