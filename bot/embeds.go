package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"wagermatch/models"
)

// ColorWarning is the Discord embed color for disputes
const ColorWarning = 0xFEE75C

// buildDisputeEmbed describes a match whose participants reported different winners
func buildDisputeEmbed(match *models.Match) *discordgo.MessageEmbed {
	opponentName := "Unknown"
	if match.OpponentName != nil {
		opponentName = *match.OpponentName
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Host",
			Value:  fmt.Sprintf("%s\nReported: **%s**", match.HostName, formatVote(match.HostResult)),
			Inline: true,
		},
		{
			Name:   "Opponent",
			Value:  fmt.Sprintf("%s\nReported: **%s**", opponentName, formatVote(match.OpponentResult)),
			Inline: true,
		},
		{
			Name: "Stakes",
			Value: fmt.Sprintf("• Entry fee: **%s coins** each\n• Prize held: **%s coins**",
				FormatCoins(match.EntryFee.StringFixed(2)), FormatCoins(match.Prize.StringFixed(2))),
			Inline: false,
		},
		{
			Name:   "Game",
			Value:  fmt.Sprintf("%s • First to %d • %s • %s", match.GameMode, match.FirstTo, match.Platform, match.Region),
			Inline: false,
		},
	}

	disputedAt := time.Now()
	if match.DisputedAt != nil {
		disputedAt = *match.DisputedAt
	}

	return &discordgo.MessageEmbed{
		Title:       "⚠️ Match Disputed",
		Description: fmt.Sprintf("Match `%s` needs review. Disputed %s.", match.ID, FormatDiscordTimestamp(disputedAt, "R")),
		Color:       ColorWarning,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Funds stay held until a moderator resolves the dispute",
		},
		Timestamp: disputedAt.UTC().Format(time.RFC3339),
	}
}

func formatVote(vote *models.ResultVote) string {
	if vote == nil {
		return "nothing"
	}
	switch *vote {
	case models.ResultVoteHost:
		return "host won"
	case models.ResultVoteOpponent:
		return "opponent won"
	}
	return string(*vote)
}

// FormatCoins adds thousand separators to the integer part of a fixed-point amount
func FormatCoins(amount string) string {
	sign := ""
	if len(amount) > 0 && amount[0] == '-' {
		sign, amount = "-", amount[1:]
	}

	intPart, frac, hasFrac := strings.Cut(amount, ".")
	if hasFrac {
		frac = "." + frac
	}

	n := len(intPart)
	if n <= 3 {
		return sign + intPart + frac
	}

	out := make([]byte, 0, n+n/3)
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	return sign + string(out) + frac
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in the reader's timezone
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
