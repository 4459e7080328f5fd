package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	welcomeText = "👋 I help you alternate sitting and standing through the workday.\n\n" +
		"/start begins a sitting stretch and I will tell you when to stand.\n" +
		"Use /settings to change the durations, /autosit to control the weekday auto-start."
	helpText = "Commands:\n" +
		"/start — begin a sit/stand cycle\n" +
		"/stop — end the current cycle\n" +
		"/status — what you are doing right now\n" +
		"/settings — view or change sit/stand minutes\n" +
		"/autosit — toggle the weekday auto-start\n" +
		"/help — this message"

	alreadyRunningText = "A cycle is already running. /stop it first if you want to restart."
	notRunningText     = "No cycle is running. /start one."
	idleStatusText     = "🛋 Idle. /start when you sit down."
	statusFmt          = "%s — %d min elapsed.\nDurations: sit %d min, stand %d min."

	settingsFmt       = "Current durations: sit %d min, stand %d min.\n\nSend two numbers to change them, e.g. 45 5 (sit minutes, then stand minutes)."
	settingsSavedFmt  = "Saved: sit %d min, stand %d min. They apply from the next transition."
	settingsUsageText = "I need two positive numbers: sit minutes and stand minutes. Example: 45 5"

	autoSitFmt     = "Weekday auto-start is %s. I start a sitting stretch for you at the beginning of every workday."
	autoSitOnText  = "✅ Auto-start enabled. See you next workday morning."
	autoSitOffText = "💤 Auto-start disabled. /start manually when you sit down."
	notRegistered  = "I don't know you yet — /start a cycle first."

	genericErrText = "Something went wrong. Please try again."
)

const (
	cbAutoSitOn  = "autosit:on"
	cbAutoSitOff = "autosit:off"
)

func autoSitKeyboard(enabled bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("🔔 Enable", cbAutoSitOn)
	if enabled {
		toggle = tgbotapi.NewInlineKeyboardButtonData("🔕 Disable", cbAutoSitOff)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggle),
	)
}
