package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagermatch/events"
	"wagermatch/models"
)

type recordingSender struct {
	mu         sync.Mutex
	channelIDs []string
	embeds     []*discordgo.MessageEmbed
	err        error
}

func (s *recordingSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelIDs = append(s.channelIDs, channelID)
	s.embeds = append(s.embeds, embed)
	if s.err != nil {
		return nil, s.err
	}
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeds)
}

func disputedMatch() models.Match {
	opponentID := uuid.New()
	opponentName := "Bob"
	hostVote := models.ResultVoteHost
	opponentVote := models.ResultVoteOpponent
	disputedAt := time.Date(2025, 6, 1, 18, 45, 0, 0, time.UTC)

	return models.Match{
		ID:             uuid.New(),
		HostID:         uuid.New(),
		HostName:       "Alice",
		OpponentID:     &opponentID,
		OpponentName:   &opponentName,
		GameMode:       "Box Fight",
		FirstTo:        5,
		Platform:       "PC",
		Region:         "EU",
		EntryFee:       decimal.RequireFromString("1250.00"),
		Prize:          decimal.RequireFromString("2125.00"),
		Status:         models.MatchStatusDisputed,
		HostResult:     &hostVote,
		OpponentResult: &opponentVote,
		DisputedAt:     &disputedAt,
	}
}

func TestDisputeNotifier_Handle(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewDisputeNotifier("mod-channel", sender)
	match := disputedMatch()

	notifier.Handle(context.Background(), events.MatchDisputedEvent{Match: match})
	notifier.Handle(context.Background(), events.MatchSettledEvent{Match: match})

	require.Len(t, sender.embeds, 1)
	assert.Equal(t, []string{"mod-channel"}, sender.channelIDs)

	embed := sender.embeds[0]
	assert.Equal(t, ColorWarning, embed.Color)
	assert.Contains(t, embed.Description, match.ID.String())
	assert.Contains(t, embed.Description, "<t:1748803500:R>")
	require.Len(t, embed.Fields, 4)
	assert.Contains(t, embed.Fields[0].Value, "Alice")
	assert.Contains(t, embed.Fields[0].Value, "host won")
	assert.Contains(t, embed.Fields[1].Value, "Bob")
	assert.Contains(t, embed.Fields[1].Value, "opponent won")
	assert.Contains(t, embed.Fields[2].Value, "1,250.00")
	assert.Contains(t, embed.Fields[2].Value, "2,125.00")
	assert.Equal(t, "2025-06-01T18:45:00Z", embed.Timestamp)
}

func TestDisputeNotifier_SendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("discord down")}
	notifier := NewDisputeNotifier("mod-channel", sender)

	assert.NotPanics(t, func() {
		notifier.Handle(context.Background(), events.MatchDisputedEvent{Match: disputedMatch()})
	})
	assert.Len(t, sender.embeds, 1)
}

func TestDisputeNotifier_RegisterOnBus(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewDisputeNotifier("mod-channel", sender)
	bus := events.NewBus()
	notifier.Register(bus)
	bus.Emit(context.Background(), events.MatchDisputedEvent{Match: disputedMatch()})

	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestFormatCoins(t *testing.T) {
	tests := map[string]string{
		"0.00":       "0.00",
		"999.50":     "999.50",
		"1000.00":    "1,000.00",
		"1234567.89": "1,234,567.89",
		"-2500.10":   "-2,500.10",
		"1000000":    "1,000,000",
	}
	for input, want := range tests {
		assert.Equal(t, want, FormatCoins(input), input)
	}
}

func TestNotifierCloseWithoutSession(t *testing.T) {
	assert.NoError(t, NewDisputeNotifier("c", &recordingSender{}).Close())
}
