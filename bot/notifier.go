package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"wagermatch/events"
)

// Config holds the dispute notifier configuration
type Config struct {
	Token     string
	ChannelID string
}

// MessageSender is the part of a Discord session the notifier needs
type MessageSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DisputeNotifier posts disputed matches to a moderation channel
type DisputeNotifier struct {
	channelID string
	sender    MessageSender
	session   *discordgo.Session
}

// New opens a Discord session for posting dispute notifications
func New(config Config) (*DisputeNotifier, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	notifier := NewDisputeNotifier(config.ChannelID, dg)
	notifier.session = dg
	return notifier, nil
}

// NewDisputeNotifier creates a notifier that posts through sender
func NewDisputeNotifier(channelID string, sender MessageSender) *DisputeNotifier {
	return &DisputeNotifier{channelID: channelID, sender: sender}
}

// Register subscribes the notifier to disputed matches on bus
func (n *DisputeNotifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMatchDisputed, n.Handle)
	log.WithField("channelID", n.channelID).Info("Dispute notifications enabled")
}

// Handle posts one dispute. Failures are logged; the match state is already committed.
func (n *DisputeNotifier) Handle(_ context.Context, event events.Event) {
	disputed, ok := event.(events.MatchDisputedEvent)
	if !ok {
		return
	}

	if _, err := n.sender.ChannelMessageSendEmbed(n.channelID, buildDisputeEmbed(&disputed.Match)); err != nil {
		log.WithError(err).WithField("matchID", disputed.Match.ID).Error("Failed to post dispute notification")
	}
}

// Close closes the Discord session if the notifier owns one
func (n *DisputeNotifier) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Close()
}
