package telegram

import (
	"encoding/json"
	"fmt"
	"log"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/localization"
	"cultgo/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Channels posts game output to the fixed chats the game runs across:
// the cult channel (events, accepted reports), the bureau channel
// (derived cases), and the operator chat (degradation warnings).
type Channels struct {
	BotAPI    *tgbotapi.BotAPI
	Localizer *localization.Localizer
	Lang      string

	CultChannelID   int64
	BureauChannelID int64
	OperatorChatID  int64
}

// AnnounceEvent posts a new assignment to the cult channel, with the
// victim photo when the catalog has one.
func (c *Channels) AnnounceEvent(event *models.Event) error {
	text := c.Localizer.Format(c.Lang, "new_event",
		event.VictimName, event.VictimDescription, event.WeaponName, event.Ritual, event.Place)

	if event.VictimPhotoRef != "" {
		photo := tgbotapi.NewPhoto(c.CultChannelID, tgbotapi.FileID(event.VictimPhotoRef))
		photo.Caption = text
		_, err := c.BotAPI.Send(photo)
		return err
	}
	_, err := c.BotAPI.Send(tgbotapi.NewMessage(c.CultChannelID, text))
	return err
}

// AnnounceExhaustion tells the cult channel that no victims remain.
func (c *Channels) AnnounceExhaustion() error {
	_, err := c.BotAPI.Send(tgbotapi.NewMessage(c.CultChannelID, c.Localizer.GetString(c.Lang, "victims_exhausted")))
	return err
}

// PostCase publishes a derived case to the bureau channel, evidence attached.
func (c *Channels) PostCase(cs *models.Case) error {
	text := c.Localizer.Format(c.Lang, "case_posted", cs.CaseCode, cs.Place)

	if cs.DegradedPhotoRef != "" {
		photo := tgbotapi.NewPhoto(c.BureauChannelID, photoFile(cs.DegradedPhotoRef))
		photo.Caption = text
		_, err := c.BotAPI.Send(photo)
		return err
	}
	_, err := c.BotAPI.Send(tgbotapi.NewMessage(c.BureauChannelID, text))
	return err
}

// PostOperatorWarning reports a case derivation problem to the operator chat.
func (c *Channels) PostOperatorWarning(text string) error {
	_, err := c.BotAPI.Send(tgbotapi.NewMessage(c.OperatorChatID, text))
	return err
}

// PostToCult sends arbitrary text to the cult channel.
func (c *Channels) PostToCult(text string) {
	if _, err := c.BotAPI.Send(tgbotapi.NewMessage(c.CultChannelID, text)); err != nil {
		log.Printf("ERROR: Failed to post to cult channel: %v", err)
	}
}

// PostToBureau sends arbitrary text to the bureau channel.
func (c *Channels) PostToBureau(text string) {
	if _, err := c.BotAPI.Send(tgbotapi.NewMessage(c.BureauChannelID, text)); err != nil {
		log.Printf("ERROR: Failed to post to bureau channel: %v", err)
	}
}

// InviteLink creates a fresh single-use invite link for the given chat.
func (c *Channels) InviteLink(chatID int64) (string, error) {
	resp, err := c.BotAPI.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: chatID},
		MemberLimit: config.InviteLinkMemberLimit,
	})
	if err != nil {
		return "", fmt.Errorf("create invite link for chat %d: %w", chatID, err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link response: %w", err)
	}
	return link.InviteLink, nil
}

// photoFile picks the right request payload for a stored photo reference.
// Degraded evidence lives on local disk, everything else is a Telegram
// file ID that can be re-sent as is.
func photoFile(ref string) tgbotapi.RequestFileData {
	if len(ref) > 0 && ref[0] == '/' {
		return tgbotapi.FilePath(ref)
	}
	return tgbotapi.FileID(ref)
}
