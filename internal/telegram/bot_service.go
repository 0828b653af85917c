// Package telegram handles the integration with the Telegram Bot API.
// It is responsible for receiving updates from Telegram, routing them to
// the game services, and posting game output to the fixed channels.
package telegram

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/investigation"
	"cultgo/backend/internal/localization"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/photo"
	"cultgo/backend/internal/ritual"
	"cultgo/backend/internal/roster"
	"cultgo/backend/internal/scoring"
	"cultgo/backend/internal/storage"
	"cultgo/backend/internal/submission"
	"cultgo/backend/internal/weapons"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService receives Telegram updates and routes them to the game services.
// Every handler maps service errors onto localized replies; nothing that
// happens inside a handler may kill the update loop.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Storage   storage.Storage
	Localizer *localization.Localizer
	Lang      string

	Roster        *roster.Service
	Resolver      *weapons.Resolver
	Pipeline      *submission.Pipeline
	Investigation *investigation.Service
	Scoring       *scoring.Service
	Cycle         *ritual.Cycle
	Decoder       photo.QRDecoder
	Channels      *Channels

	ModerationChatID int64
	AdminIDs         map[int64]bool
}

// Deps bundles the game services the bot routes updates to.
type Deps struct {
	Storage       storage.Storage
	Roster        *roster.Service
	Resolver      *weapons.Resolver
	Pipeline      *submission.Pipeline
	Investigation *investigation.Service
	Scoring       *scoring.Service
	Cycle         *ritual.Cycle
	Decoder       photo.QRDecoder

	Lang             string
	CultChannelID    int64
	BureauChannelID  int64
	ModerationChatID int64
	OperatorChatID   int64
	AdminIDs         []int64
}

// NewBotService creates a new BotService instance.
func NewBotService(token string, deps Deps) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	localizer, err := localization.NewLocalizer("internal/localization")
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}

	lang := deps.Lang
	if lang == "" {
		lang = "ru"
	}

	admins := make(map[int64]bool, len(deps.AdminIDs))
	for _, id := range deps.AdminIDs {
		admins[id] = true
	}

	return &BotService{
		BotAPI:    bot,
		Storage:   deps.Storage,
		Localizer: localizer,
		Lang:      lang,

		Roster:        deps.Roster,
		Resolver:      deps.Resolver,
		Pipeline:      deps.Pipeline,
		Investigation: deps.Investigation,
		Scoring:       deps.Scoring,
		Cycle:         deps.Cycle,
		Decoder:       deps.Decoder,
		Channels: &Channels{
			BotAPI:          bot,
			Localizer:       localizer,
			Lang:            lang,
			CultChannelID:   deps.CultChannelID,
			BureauChannelID: deps.BureauChannelID,
			OperatorChatID:  deps.OperatorChatID,
		},

		ModerationChatID: deps.ModerationChatID,
		AdminIDs:         admins,
	}, nil
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "chat_member"}
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.Message != nil:
			s.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			s.handleCallbackQuery(update.CallbackQuery)
		case update.ChatMember != nil:
			s.handleChatMemberUpdate(update.ChatMember)
		}
	}
}

// reply sends plain text to a chat, logging instead of failing.
func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: Failed to send message to chat %d: %v", chatID, err)
	}
}

// replyKey sends a localized text by key.
func (s *BotService) replyKey(chatID int64, key string, args ...any) {
	s.reply(chatID, s.Localizer.Format(s.Lang, key, args...))
}

// replyError maps a service error onto a localized reply. Errors outside
// the game taxonomy are logged and answered with the generic failure text.
func (s *BotService) replyError(chatID int64, err error) {
	var ge *gameerr.Error
	if !errors.As(err, &ge) {
		log.Printf("ERROR: Unclassified handler error for chat %d: %v", chatID, err)
	}
	s.replyKey(chatID, gameerr.TextKeyOf(err, "internal_error"))
}

func (s *BotService) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if msg.IsCommand() {
		s.handleCommand(msg)
		return
	}

	isPrivate := msg.Chat.Type == "private"

	switch {
	case msg.Photo != nil:
		if !isPrivate {
			// Evidence in a group is never reviewed and would expose the
			// sender; it is refused on sight.
			s.replyKey(msg.Chat.ID, "evidence_private_only")
			return
		}
		s.handlePrivatePhoto(msg)
	case msg.Text != "" && isPrivate:
		s.handlePrivateText(msg)
	}
}

func (s *BotService) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		// A phone camera scanning a weapon QR opens the bot via the
		// t.me deep link, which arrives here as "/start weapon-XXXX".
		if code, ok := weapons.ParseQRPayload(msg.CommandArguments()); ok {
			resolved, err := s.Resolver.SubmitClaim(userID, code)
			if err != nil {
				s.replyError(chatID, err)
				return
			}
			s.replyKey(chatID, "claim_accepted", resolved)
			return
		}
		s.handleStart(chatID)
	case "help":
		s.replyKey(chatID, "onboarding")
	case "cases":
		s.handleCases(chatID, userID)
	case "investigate":
		s.handleInvestigate(chatID, userID)
	case "score":
		s.handleScore(chatID, userID)
	case "cycle":
		if !s.requireAdmin(chatID, userID) {
			return
		}
		if s.Cycle.Start() {
			s.replyKey(chatID, "cycle_started", config.EventInterval.String())
		} else {
			s.replyKey(chatID, "cycle_already_running")
		}
	case "stop":
		if !s.requireAdmin(chatID, userID) {
			return
		}
		if s.Cycle.Stop() {
			s.replyKey(chatID, "cycle_stopped")
		} else {
			s.replyKey(chatID, "cycle_not_running")
		}
	case "setscore":
		if !s.requireAdmin(chatID, userID) {
			return
		}
		s.handleSetScore(chatID, msg.CommandArguments())
	}
}

func (s *BotService) requireAdmin(chatID, userID int64) bool {
	if s.AdminIDs[userID] {
		return true
	}
	s.replyKey(chatID, "wrong_faction")
	return false
}

// handleStart offers the faction choice and explains the game.
func (s *BotService) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(s.Lang, "choose_side"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Localizer.GetString(s.Lang, "btn_join_cult"), "join_cult"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Localizer.GetString(s.Lang, "btn_join_bureau"), "join_bureau"),
		),
	)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send start keyboard to chat %d: %v", chatID, err)
	}
	s.replyKey(chatID, "onboarding")
}

func (s *BotService) handleCases(chatID, userID int64) {
	cases, err := s.Investigation.OpenCases(userID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}
	if len(cases) == 0 {
		s.replyKey(chatID, "no_open_cases")
		return
	}

	var b strings.Builder
	b.WriteString(s.Localizer.GetString(s.Lang, "open_cases_header"))
	for _, c := range cases {
		b.WriteString("\n\n")
		b.WriteString(s.Localizer.Format(s.Lang, "case_line", c.CaseCode, c.Place))
	}
	s.reply(chatID, b.String())
}

func (s *BotService) handleInvestigate(chatID, userID int64) {
	cases, err := s.Investigation.StartSession(userID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}
	if len(cases) == 0 {
		s.replyKey(chatID, "no_open_cases")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cases))
	for _, c := range cases {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.CaseCode, "fbi_case:"+c.ID),
		))
	}
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(s.Lang, "choose_case"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send case list to chat %d: %v", chatID, err)
	}
}

// handleScore shows the caller their score plus their faction's top 10.
func (s *BotService) handleScore(chatID, userID int64) {
	player, err := s.Storage.GetPlayerByTelegramID(userID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	faction := scoring.BoardFaction(player)
	headerKey, emptyKey := "leaderboard_cult_header", "no_scores"
	if faction == models.FactionBureau {
		headerKey, emptyKey = "leaderboard_bureau_header", "no_scores_bureau"
	}

	entries, err := s.Scoring.Leaderboard(faction, 10)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	own, err := s.Scoring.ScoreOf(userID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString(s.Localizer.GetString(s.Lang, emptyKey))
	} else {
		b.WriteString(s.Localizer.GetString(s.Lang, headerKey))
		for i, e := range entries {
			name := e.Username
			if name == "" {
				name = strconv.FormatInt(e.UserID, 10)
			}
			b.WriteString(fmt.Sprintf("\n%d. %s — %d", i+1, name, e.Score))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(s.Localizer.Format(s.Lang, "your_score", own))
	s.reply(chatID, b.String())
}

func (s *BotService) handleSetScore(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		s.replyKey(chatID, "set_score_usage")
		return
	}
	userID, err1 := strconv.ParseInt(fields[0], 10, 64)
	score, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		s.replyKey(chatID, "set_score_usage")
		return
	}
	if err := s.Scoring.ForceSet(userID, score); err != nil {
		s.replyError(chatID, err)
		return
	}
	s.replyKey(chatID, "set_score_done", score, userID)
}

// handlePrivateText routes free text: an in-flight investigation waiting
// for a weapon code wins over a cult claim attempt.
func (s *BotService) handlePrivateText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	mq, err := s.Investigation.EnterWeapon(userID, msg.Text)
	if err == nil {
		s.sendMaskQuestion(chatID, mq)
		return
	}
	if gameerr.TextKeyOf(err, "") != "no_session" {
		s.replyError(chatID, err)
		return
	}

	// Not investigating: only prefixed text ("weapon:QW34") is a claim,
	// ordinary chatter is ignored.
	if !strings.Contains(msg.Text, ":") {
		return
	}
	code, err := s.Resolver.SubmitClaim(userID, msg.Text)
	if err != nil {
		s.replyError(chatID, err)
		return
	}
	s.replyKey(chatID, "claim_accepted", code)
}

// handlePrivatePhoto decides between the two photo intakes: a QR shot of
// a weapon sticker becomes a claim, anything else goes to moderation as
// ritual evidence.
func (s *BotService) handlePrivatePhoto(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	largest := msg.Photo[len(msg.Photo)-1]

	localPath, err := s.downloadPhoto(largest.FileID)
	if err != nil {
		log.Printf("ERROR: Failed to download photo from user %d: %v", userID, err)
		s.replyKey(chatID, "internal_error")
		return
	}
	defer os.Remove(localPath)

	if payload, ok := s.Decoder.Decode(localPath); ok {
		raw, ok := weapons.ParseQRPayload(payload)
		if !ok {
			s.replyKey(chatID, "qr_no_code")
			return
		}
		code, err := s.Resolver.SubmitClaim(userID, raw)
		if err != nil {
			s.replyError(chatID, err)
			return
		}
		s.replyKey(chatID, "claim_accepted", code)
		return
	}

	username := msg.From.UserName
	pending, err := s.Pipeline.Intake(userID, username, largest.FileID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}
	s.postModerationCard(pending)
	s.replyKey(chatID, "report_received")
}

// postModerationCard sends the evidence photo with accept/reject buttons
// to the moderation chat and binds the card to the pending row.
func (s *BotService) postModerationCard(pending *models.PendingSubmission) {
	card := tgbotapi.NewPhoto(s.ModerationChatID, tgbotapi.FileID(pending.PhotoRef))
	card.Caption = s.Localizer.Format(s.Lang, "report_card",
		pending.Username, pending.VictimName, pending.Ritual, pending.WeaponName, pending.Place)
	card.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅", "accept"),
			tgbotapi.NewInlineKeyboardButtonData("❌", "reject"),
		),
	)

	sent, err := s.BotAPI.Send(card)
	if err != nil {
		log.Printf("ERROR: Failed to post moderation card for pending %s: %v", pending.ID, err)
		return
	}
	if err := s.Pipeline.BindControlMessage(pending.ID, sent.MessageID); err != nil {
		log.Printf("ERROR: Failed to bind control message %d to pending %s: %v", sent.MessageID, pending.ID, err)
	}
}

// downloadPhoto fetches a Telegram photo into a temp file for the QR scanner.
func (s *BotService) downloadPhoto(fileID string) (string, error) {
	fetcher := FileFetcher{BotAPI: s.BotAPI}
	path, _, err := fetcher.Fetch(fileID)
	return path, err
}

func (s *BotService) handleCallbackQuery(cq *tgbotapi.CallbackQuery) {
	// Respond to the callback query to remove the "loading" state.
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("failed to send callback response: %v", err)
	}
	if cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	cb := ParseCallback(cq.Data)

	switch cb.Kind {
	case CallbackJoinCult:
		s.handleJoinCult(chatID, userID, cq.From.UserName)
	case CallbackJoinBureau:
		s.handleJoinBureau(chatID, userID, cq.From.UserName)
	case CallbackAccept:
		s.handleAccept(chatID, cq.Message.MessageID)
	case CallbackReject:
		s.handleReject(chatID, cq.Message.MessageID)
	case CallbackCase:
		s.handleChooseCase(chatID, userID, cb.Arg)
	case CallbackVictim:
		s.handleChooseVictim(chatID, userID, cb.Arg)
	case CallbackMask:
		s.handleChooseMask(chatID, userID, cb.Arg)
	case CallbackRitual:
		s.handleChooseRitual(chatID, userID, cb.Arg)
	case CallbackConfirm:
		s.handleConfirm(chatID, userID)
	case CallbackCancel:
		s.Investigation.Abandon(userID)
		s.replyKey(chatID, "session_cancelled")
	}
}

func (s *BotService) handleJoinCult(chatID, userID int64, username string) {
	identity, err := s.Roster.JoinCult(userID, username)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	link, err := s.Channels.InviteLink(s.Channels.CultChannelID)
	if err != nil {
		log.Printf("ERROR: Failed to create cult invite for user %d: %v", userID, err)
	}
	s.replyKey(chatID, "join_cult_welcome", identity.MaskSymbol, identity.Name, identity.Description, link)
}

func (s *BotService) handleJoinBureau(chatID, userID int64, username string) {
	result, err := s.Roster.JoinBureau(userID, username)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	link, err := s.Channels.InviteLink(s.Channels.BureauChannelID)
	if err != nil {
		log.Printf("ERROR: Failed to create bureau invite for user %d: %v", userID, err)
	}
	s.replyKey(chatID, "join_bureau_welcome", link)

	if result.Penalized {
		s.replyKey(chatID, "defection_penalty", config.DefectionPenalty, result.NewScore)
	}
	if result.Betrayed {
		s.Channels.PostToCult(s.Localizer.Format(s.Lang, "betrayal_broadcast", username))
	}
}

// handleAccept finalizes a moderation card: credit the reporter, confirm
// on the card, republish the evidence to the cult channel, and DM the
// reporter their verdict.
func (s *BotService) handleAccept(chatID int64, messageID int) {
	result, err := s.Pipeline.Accept(messageID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}
	report := result.Report

	caption := s.Localizer.Format(s.Lang, "report_card",
		report.Username, report.VictimName, report.Ritual, report.WeaponName, report.Place) +
		s.Localizer.Format(s.Lang, "report_accepted_caption", result.NewScore)
	if _, err := s.BotAPI.Send(tgbotapi.NewEditMessageCaption(chatID, messageID, caption)); err != nil {
		log.Printf("ERROR: Failed to edit moderation card %d: %v", messageID, err)
	}

	republished := tgbotapi.NewPhoto(s.Channels.CultChannelID, tgbotapi.FileID(report.PhotoRef))
	republished.Caption = s.Localizer.Format(s.Lang, "accepted_photo_caption",
		report.Username, report.VictimName, report.Ritual, report.WeaponName, report.Place)
	if _, err := s.BotAPI.Send(republished); err != nil {
		log.Printf("ERROR: Failed to republish accepted report to cult channel: %v", err)
	}

	s.replyKey(report.UserID, "report_accepted_private",
		report.VictimName, report.Ritual, report.WeaponName, report.Place, result.NewScore)
}

func (s *BotService) handleReject(chatID int64, messageID int) {
	pending, err := s.Pipeline.Reject(messageID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	caption := s.Localizer.Format(s.Lang, "report_card",
		pending.Username, pending.VictimName, pending.Ritual, pending.WeaponName, pending.Place) +
		s.Localizer.GetString(s.Lang, "report_rejected_caption")
	if _, err := s.BotAPI.Send(tgbotapi.NewEditMessageCaption(chatID, messageID, caption)); err != nil {
		log.Printf("ERROR: Failed to edit moderation card %d: %v", messageID, err)
	}

	s.replyKey(pending.UserID, "report_rejected_private")
}

func (s *BotService) handleChooseCase(chatID, userID int64, caseID string) {
	vq, err := s.Investigation.ChooseCase(userID, caseID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(vq.Options))
	for _, v := range vq.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(v.Name, "victim:"+v.ID),
		))
	}
	msg := tgbotapi.NewMessage(chatID, s.Localizer.Format(s.Lang, "victim_prompt", vq.Description))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send victim options to chat %d: %v", chatID, err)
	}
}

func (s *BotService) handleChooseVictim(chatID, userID int64, victimID string) {
	if err := s.Investigation.ChooseVictim(userID, victimID); err != nil {
		s.replyError(chatID, err)
		return
	}
	s.replyKey(chatID, "weapon_prompt")
}

func (s *BotService) sendMaskQuestion(chatID int64, mq *investigation.MaskQuestion) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(mq.Options))
	for _, id := range mq.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(id.MaskSymbol+" "+id.Name, "mask:"+id.MaskSymbol),
		))
	}
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(s.Lang, "mask_prompt"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send mask options to chat %d: %v", chatID, err)
	}
}

func (s *BotService) handleChooseMask(chatID, userID int64, maskSymbol string) {
	rituals, err := s.Investigation.ChooseMask(userID, maskSymbol)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rituals))
	for _, r := range rituals {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r, "ritual:"+r),
		))
	}
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(s.Lang, "ritual_prompt"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send ritual options to chat %d: %v", chatID, err)
	}
}

func (s *BotService) handleChooseRitual(chatID, userID int64, ritualName string) {
	draft, err := s.Investigation.ChooseRitual(userID, ritualName)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, s.Localizer.Format(s.Lang, "confirm_prompt",
		draft.CaseCode, draft.VictimName, draft.WeaponGuess, draft.MaskGuess, draft.RitualGuess))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Localizer.GetString(s.Lang, "btn_confirm"), "confirm_yes"),
			tgbotapi.NewInlineKeyboardButtonData(s.Localizer.GetString(s.Lang, "btn_cancel"), "confirm_no"),
		),
	)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("ERROR: Failed to send confirmation prompt to chat %d: %v", chatID, err)
	}
}

func (s *BotService) handleConfirm(chatID, userID int64) {
	verdict, err := s.Investigation.Submit(userID)
	if err != nil {
		s.replyError(chatID, err)
		return
	}

	if verdict.AlreadyClosedBy != nil {
		s.replyKey(chatID, "already_closed_by", verdict.Case.CaseCode, *verdict.AlreadyClosedBy)
		return
	}

	if verdict.Closed {
		s.replyKey(chatID, "verdict_closed", verdict.Case.CaseCode, verdict.NewScore)
		s.Channels.PostToBureau(s.Localizer.Format(s.Lang, "verdict_closed_channel", verdict.Case.CaseCode))
		return
	}

	mark := func(ok bool) string {
		if ok {
			return s.Localizer.GetString(s.Lang, "fact_ok")
		}
		return s.Localizer.GetString(s.Lang, "fact_bad")
	}
	s.replyKey(chatID, "verdict_failed",
		mark(verdict.VictimOK), mark(verdict.WeaponOK), mark(verdict.MaskOK), mark(verdict.RitualOK))
}

// handleChatMemberUpdate greets newly joined cult members with their mask,
// never their real name alone.
func (s *BotService) handleChatMemberUpdate(upd *tgbotapi.ChatMemberUpdated) {
	if upd.Chat.ID != s.Channels.CultChannelID {
		return
	}
	if upd.NewChatMember.Status != "member" {
		return
	}

	user := upd.NewChatMember.User
	if user == nil {
		return
	}
	identity, err := s.Roster.IdentityOf(user.ID)
	if err != nil || identity == nil {
		return
	}
	s.Channels.PostToCult(s.Localizer.Format(s.Lang, "member_welcome",
		user.UserName, identity.MaskSymbol, identity.Name, identity.Description))
}
