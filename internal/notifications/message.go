package notifications

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

const descriptionLimit = 200

type translations struct {
	Pre3D           string
	Pre24H          string
	Pre1H           string
	Update          string
	AttendanceCheck string
	TimeField       string
	Confirm         string
	Decline         string
	Footer          string
}

var translationsByLanguage = map[enums.Language]translations{
	enums.LanguageEnglish: {
		Pre3D:           "🔔 **Upcoming Event: In 3 Days**",
		Pre24H:          "🔔 **Upcoming Event: Tomorrow**",
		Pre1H:           "🔔 **Upcoming Event: In 1 Hour**",
		Update:          "📝 **Event Update**",
		AttendanceCheck: "❓ **Attendance Confirmation**",
		TimeField:       "Time",
		Confirm:         "Confirm Attendance",
		Decline:         "Decline",
		Footer:          "Manage your notification preferences with /notifications.",
	},
	enums.LanguageHungarian: {
		Pre3D:           "🔔 **Közelgő Esemény: 3 Nap Múlva**",
		Pre24H:          "🔔 **Közelgő Esemény: Holnap**",
		Pre1H:           "🔔 **Közelgő Esemény: 1 Óra Múlva**",
		Update:          "📝 **Esemény Frissítés**",
		AttendanceCheck: "❓ **Jelenlét Megerősítése**",
		TimeField:       "Időpont",
		Confirm:         "Megerősítem",
		Decline:         "Nem tudok jönni",
		Footer:          "Az értesítési beállításaidat a /notifications paranccsal módosíthatod.",
	},
}

func (t translations) title(milestone enums.MilestoneType) string {
	switch milestone {
	case enums.MilestonePre3D:
		return t.Pre3D
	case enums.MilestonePre24H:
		return t.Pre24H
	case enums.MilestonePre1H:
		return t.Pre1H
	case enums.MilestoneAttendanceCheck:
		return t.AttendanceCheck
	default:
		return t.Update
	}
}

// BuildMessage renders the direct-message payload for one milestone in the
// recipient's language. The attendance check additionally carries the
// confirm/decline buttons the interaction handler listens for.
func BuildMessage(event models.Event, milestone enums.MilestoneType, language enums.Language) *discordgo.MessageSend {
	t, ok := translationsByLanguage[language]
	if !ok {
		t = translationsByLanguage[enums.LanguageEnglish]
	}

	embed := &discordgo.MessageEmbed{
		Title:       event.Name,
		Description: truncate(stringValue(event.Description), descriptionLimit),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: t.TimeField,
				// Discord renders <t:..:F> in the recipient's local timezone.
				Value:  fmt.Sprintf("<t:%d:F>", event.StartTime.Unix()),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: t.Footer},
	}
	if event.BannerURL != nil && *event.BannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: *event.BannerURL}
	}

	message := &discordgo.MessageSend{
		Content: t.title(milestone),
		Embeds:  []*discordgo.MessageEmbed{embed},
	}

	if milestone == enums.MilestoneAttendanceCheck {
		message.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Style:    discordgo.PrimaryButton,
						Label:    t.Confirm,
						CustomID: fmt.Sprintf("attend:confirm:%s", event.ID),
					},
					discordgo.Button{
						Style:    discordgo.DangerButton,
						Label:    t.Decline,
						CustomID: fmt.Sprintf("attend:decline:%s", event.ID),
					},
				},
			},
		}
	}

	return message
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
