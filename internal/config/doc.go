// Package config provides configuration management for hostrelay.
//
// Configuration is layered. Later sources override earlier ones:
//
//  1. Defaults (device name = hostname, 30s long polling, ...)
//  2. User configuration (~/.config/hostrelay/config.yaml)
//  3. An explicit --config file
//  4. A dotenv file (--env-file, or ~/.config/hostrelay/.env when present)
//  5. The process environment (BOT_TOKEN, ALLOWED_USER_ID, DEVICE_NAME)
//
// # Configuration File
//
//	botToken: "123456:ABC..."
//	allowedUserID: 123456789
//	deviceName: "workstation"
//	pollTimeout: 30          # seconds
//	commandTimeout: 2m
//	queueSize: 8
//	maxScheduleDelay: 168h
//	keepPendingUpdates: false
//	logLevel: info
//	logFile: ~/.local/state/hostrelay/hostrelay.log
//	pidFile: /run/user/1000/hostrelay.pid
//
// The bot token and operator id are required; Validate reports which one is
// missing so startup can fail before the bot connects.
package config
