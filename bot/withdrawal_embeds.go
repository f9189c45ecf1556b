package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"monkeybet/events"
	"monkeybet/models"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// FormatAmount renders a money value with two decimals and thousand separators
func FormatAmount(amount decimal.Decimal) string {
	str := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(str, ".")

	var result strings.Builder
	if amount.IsNegative() {
		result.WriteRune('-')
	}
	n := len(whole)
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	result.WriteRune('.')
	result.WriteString(frac)

	return result.String()
}

// buildWithdrawalRequestedEmbed creates the admin alert for a new request
func buildWithdrawalRequestedEmbed(event events.WithdrawalRequestedEvent) *discordgo.MessageEmbed {
	user := event.Username
	if user == "" {
		user = fmt.Sprintf("user %d", event.UserID)
	}

	return &discordgo.MessageEmbed{
		Title:       "💸 **Withdrawal Requested**",
		Description: fmt.Sprintf("**%s** asked to withdraw **%s**", user, FormatAmount(event.Amount)),
		Color:       ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Withdrawal",
				Value:  fmt.Sprintf("#%d", event.WithdrawalID),
				Inline: true,
			},
			{
				Name:   "User ID",
				Value:  fmt.Sprintf("%d", event.UserID),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Review it in the admin panel",
		},
	}
}

// buildWithdrawalReviewedEmbed creates the follow-up posted after a decision
func buildWithdrawalReviewedEmbed(event events.WithdrawalStatusChangedEvent) *discordgo.MessageEmbed {
	color := ColorSuccess
	verb := "approved"
	if event.NewStatus == models.WithdrawalStatusRejected {
		color = ColorDanger
		verb = "rejected and refunded"
	}

	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Withdrawal **#%d** of **%s** was %s by %d",
			event.WithdrawalID,
			FormatAmount(event.Amount),
			verb,
			event.ReviewedBy,
		),
		Color: color,
	}
}
