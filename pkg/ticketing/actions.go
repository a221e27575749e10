package ticketing

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// UIAction is the custom ID carried by a message component.
type UIAction string

const (
	// ActionOpen opens a self-service ticket from the panel.
	ActionOpen UIAction = "ticket:open"

	// ActionClose closes an open ticket.
	ActionClose UIAction = "ticket:close"

	// ActionFinishTranscript archives a closing ticket with a transcript.
	ActionFinishTranscript UIAction = "ticket:finish_transcript"

	// ActionFinishPlain deletes a closing ticket without a transcript.
	ActionFinishPlain UIAction = "ticket:finish_plain"
)

// Actions is every UI action the bot understands.
var Actions = []UIAction{ActionOpen, ActionClose, ActionFinishTranscript, ActionFinishPlain}

// ParseAction resolves a component custom ID.
func ParseAction(customID string) (UIAction, bool) {
	for _, a := range Actions {
		if string(a) == customID {
			return a, true
		}
	}
	return "", false
}

const (
	// ticketEmoji is an envelope with an arrow.
	ticketEmoji = "\U0001F4E9"

	// closeEmoji is a padlock.
	closeEmoji = "\U0001F510"

	// archiveEmoji is a card file box.
	archiveEmoji = "\U0001F5C3"

	// deleteEmoji is a cross.
	deleteEmoji = "❌"
)

func button(label string, style discordgo.ButtonStyle, action UIAction) discordgo.Button {
	return discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: string(action),
	}
}

// PanelMessage is the self-service message with the open ticket button.
func PanelMessage() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: `How can we help?
If you have any questions for the staff, click the button below to open a private ticket.`,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					button(fmt.Sprintf("%s Open Ticket", ticketEmoji), discordgo.PrimaryButton, ActionOpen),
				},
			},
		},
	}
}

func openedMessage(ownerID string, granted bool, label string) *discordgo.MessageSend {
	desc := "Please provide any additional info you deem relevant to help us answer faster."
	if !granted {
		desc = "This ticket is only visible to staff."
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Ticket opened",
		Description: desc,
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", ownerID), Inline: true},
		},
	}
	if label != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Subject", Value: label, Inline: true})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					button(fmt.Sprintf("%s Close", closeEmoji), discordgo.SecondaryButton, ActionClose),
				},
			},
		},
	}
}

func finishMessage(closedBy string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Ticket closed",
				Description: fmt.Sprintf("<@%s> closed this ticket. Choose how to finish it.", closedBy),
				Color:       0xffa500,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					button(fmt.Sprintf("%s Save transcript and delete", archiveEmoji), discordgo.PrimaryButton, ActionFinishTranscript),
					button(fmt.Sprintf("%s Delete without transcript", deleteEmoji), discordgo.DangerButton, ActionFinishPlain),
				},
			},
		},
	}
}
