package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const announcementColor = 0x00b0f4

// AnnouncementPayload carries the event fields rendered into the
// announcement embed.
type AnnouncementPayload struct {
	Name          string
	Description   string
	StartTime     time.Time
	BannerURL     string
	AuthorName    string
	AuthorIconURL string
}

func (p AnnouncementPayload) toMessageSend() *discordgo.MessageSend {
	unix := p.StartTime.Unix()
	embed := &discordgo.MessageEmbed{
		Title:       p.Name,
		Description: p.Description,
		Color:       announcementColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Time",
				Value:  fmt.Sprintf("<t:%d:F> (<t:%d:R>)", unix, unix),
				Inline: true,
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Eventdeck"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	// Discord refuses to render non-public banner urls; skip anything that is
	// not an absolute http(s) link.
	if strings.HasPrefix(p.BannerURL, "http://") || strings.HasPrefix(p.BannerURL, "https://") {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.BannerURL}
	}

	if p.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    p.AuthorName,
			IconURL: p.AuthorIconURL,
		}
	}

	return &discordgo.MessageSend{
		Content: "@everyone",
		Embeds:  []*discordgo.MessageEmbed{embed},
	}
}

// AvatarURL builds the CDN url for a user avatar hash, or empty when the user
// has no custom avatar.
func AvatarURL(discordUserID, hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", discordUserID, hash)
}
