// Package bot posts administrator alerts to a Discord channel webhook.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"monkeybet/events"
)

// WebhookSender delivers one webhook message
type WebhookSender interface {
	Send(params *discordgo.WebhookParams) error
}

// sessionWebhookSender executes a channel webhook through a discordgo session
type sessionWebhookSender struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

// NewWebhookSender creates a sender for the given webhook. Webhook calls
// are authenticated by the token in the URL, so the session needs no bot
// credentials.
func NewWebhookSender(webhookID, token string) (WebhookSender, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &sessionWebhookSender{session: session, webhookID: webhookID, token: token}, nil
}

func (s *sessionWebhookSender) Send(params *discordgo.WebhookParams) error {
	_, err := s.session.WebhookExecute(s.webhookID, s.token, false, params)
	return err
}

// AdminNotifier posts withdrawal activity so admins can review it promptly
type AdminNotifier struct {
	sender WebhookSender
}

// NewAdminNotifier creates a notifier that posts through sender
func NewAdminNotifier(sender WebhookSender) *AdminNotifier {
	return &AdminNotifier{sender: sender}
}

// Subscribe registers the notifier's handlers on the event bus
func (n *AdminNotifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWithdrawalRequested, n.handleEvent)
	bus.Subscribe(events.EventTypeWithdrawalStatusChanged, n.handleEvent)
}

func (n *AdminNotifier) handleEvent(ctx context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.WithdrawalRequestedEvent:
		embed = buildWithdrawalRequestedEmbed(e)
	case events.WithdrawalStatusChangedEvent:
		embed = buildWithdrawalReviewedEmbed(e)
	default:
		return
	}

	params := &discordgo.WebhookParams{
		Username: "monkeybet",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
	if err := n.sender.Send(params); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to post admin notification")
		return
	}

	log.WithField("eventType", event.Type()).Debug("Posted admin notification")
}
