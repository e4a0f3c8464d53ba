package telegram

import "veilbot/pkg/veil"

const (
	// DriverType is the configured driver type token for the Telegram runtime.
	DriverType = "telegram"
	// DriverPlatform is the neutral veil platform produced by the Telegram runtime.
	DriverPlatform veil.Platform = veil.PlatformTelegram
)
