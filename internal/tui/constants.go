package tui

import "time"

const (
	// Timeouts and Intervals
	NotificationDuration = 4 * time.Second

	// Input Dimensions
	InputWidth = 50

	// Layout Offsets and Padding
	DefaultPaddingX = 1
	DefaultPaddingY = 0

	// Card layout
	CardHeight        = 5 // border + path line + bar + stats line
	MinCardWidth      = 40
	ProgressBarMargin = 4

	// Modal boxes
	WizardWidth  = 80
	WizardHeight = 16
	DetailWidth  = 76
	DetailHeight = 18
)
