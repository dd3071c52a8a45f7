package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rafflehouse/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Discord embed colours
const (
	ColorWinner  = 0xF1C40F // Gold
	ColorSoldOut = 0xED4245 // Red
)

// webhookExecutor is the part of the discordgo session the announcer needs
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordWinnerAnnouncer posts draw results and sell-outs to a Discord channel webhook
type DiscordWinnerAnnouncer struct {
	session   webhookExecutor
	webhookID string
	token     string
}

// NewDiscordWinnerAnnouncer parses a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>. An empty URL returns nil.
func NewDiscordWinnerAnnouncer(webhookURL string) (*DiscordWinnerAnnouncer, error) {
	if webhookURL == "" {
		return nil, nil
	}

	webhookID, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Client.Timeout = 10 * time.Second

	return &DiscordWinnerAnnouncer{
		session:   session,
		webhookID: webhookID,
		token:     token,
	}, nil
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("discord webhook URL missing id or token")
}

// Register hooks the announcer into the publisher's local handlers
func (a *DiscordWinnerAnnouncer) Register(registry interface {
	RegisterLocalHandler(eventType events.EventType, handler EventHandler)
}) {
	registry.RegisterLocalHandler(events.EventTypeWinnerDrawn, a.HandleWinnerDrawn)
	registry.RegisterLocalHandler(events.EventTypeCompetitionSoldOut, a.HandleSoldOut)
}

// HandleWinnerDrawn announces a grand-prize winner
func (a *DiscordWinnerAnnouncer) HandleWinnerDrawn(ctx context.Context, event events.Event) error {
	drawn, ok := event.(events.WinnerDrawnEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return a.send(ctx, buildWinnerEmbed(drawn))
}

// HandleSoldOut announces that a competition has sold its last ticket
func (a *DiscordWinnerAnnouncer) HandleSoldOut(ctx context.Context, event events.Event) error {
	soldOut, ok := event.(events.CompetitionSoldOutEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return a.send(ctx, &discordgo.MessageEmbed{
		Title:       "🎟️ **Sold Out** 🎟️",
		Description: fmt.Sprintf("All **%s** tickets are gone. The draw is coming up!", formatCount(int64(soldOut.TotalTickets))),
		Color:       ColorSoldOut,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Competition " + soldOut.CompetitionID,
		},
	})
}

func (a *DiscordWinnerAnnouncer) send(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := a.session.WebhookExecute(a.webhookID, a.token, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.WithFields(log.Fields{
			"title": embed.Title,
			"error": err,
		}).Warn("Failed to post Discord announcement")
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

func buildWinnerEmbed(drawn events.WinnerDrawnEvent) *discordgo.MessageEmbed {
	name := drawn.UserName
	if name == "" {
		name = "A lucky entrant"
	}

	return &discordgo.MessageEmbed{
		Title:       "🏆 **Winner Drawn** 🏆",
		Description: fmt.Sprintf("**%s** has won **%s**!", name, drawn.CompetitionTitle),
		Color:       ColorWinner,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Winning Ticket",
				Value:  fmt.Sprintf("`%s`", drawn.TicketNumber),
				Inline: true,
			},
			{
				Name:   "Prize",
				Value:  fmt.Sprintf("%s (%s)", drawn.PrizeType, FormatPence(drawn.PrizeValue)),
				Inline: true,
			},
			{
				Name:   "Entries",
				Value:  formatCount(drawn.TotalEntries),
				Inline: true,
			},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FormatPence renders an amount in pence as pounds, e.g. 123456 -> £1,234.56
func FormatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%s.%02d", sign, formatCount(pence/100), pence%100)
}

// formatCount adds thousands separators
func formatCount(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}
