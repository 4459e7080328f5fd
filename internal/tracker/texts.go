package tracker

// Notification texts in English
const (
	startFmt        = "💺 Timer started! You are sitting now.\n⏱ I will remind you to stand in %d minutes."
	sittingLiveFmt  = "💺 Sitting — %d min elapsed."
	standingLiveFmt = "🚶 Standing — %d min elapsed."
	timeToStandFmt  = "⏰ Time to stand up! You have been sitting for %d minutes."
	nagFmt          = "❗ Please stand up! Reminder #%d."
	standAckFmt     = "🚶 Standing now. You completed %d minutes of sitting.\n⏱ Sit back down in %d minutes."
	manualStandFmt  = "🚶 Standing early after %d minutes of sitting.\n⏱ I will ask you to sit back down in %d minutes."
	timeToSitFmt    = "✅ You have been standing for %d minutes. Time to sit down."
	graceSitFmt     = "💺 No response — starting a new %d-minute sitting stretch for you."
	autoStartFmt    = "🪑 Workday started — sitting timer is on for %d minutes.\nRemember to stand up and move around!"
	stoppedText     = "⏹ Timer stopped."
	workdayOverText = "🌆 Workday is over — timer stopped. See you tomorrow!"

	btnStandUp = "🚶 Stand up"
	btnSitDown = "💺 Sit down"
)
