package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RecheckPrefix namespaces the callback data of the gate prompt's re-check
// button; the payload after the colon is the pending file id.
const RecheckPrefix = "fsub_done"

// RecheckData builds the callback payload for a pending file id.
func RecheckData(fileID string) string {
	return RecheckPrefix + ":" + fileID
}

// ParseRecheckData extracts the file id from callback data, reporting
// whether the data belongs to the re-check button at all.
func ParseRecheckData(data string) (string, bool) {
	rest, ok := strings.CutPrefix(data, RecheckPrefix+":")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// JoinKeyboard renders the gate prompt keyboard: one numbered join button
// per target laid out perRow to a row, plus a final re-check row carrying
// the pending file id.
func JoinKeyboard(targets []string, perRow int, joinText, fileID string) tgbotapi.InlineKeyboardMarkup {
	if perRow < 1 {
		perRow = 1
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, target := range targets {
		label := fmt.Sprintf("%s %d", joinText, i+1)
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL(label, joinURL(target)))
		if len(row) >= perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ I joined", RecheckData(fileID)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// joinURL turns a target into something a join button can open. Only
// public @usernames have a canonical URL; id-only targets fall back to the
// bare t.me root and should be configured with a username or invite link.
func joinURL(target string) string {
	if name, ok := strings.CutPrefix(target, "@"); ok {
		return "https://t.me/" + name
	}
	return "https://t.me/"
}
