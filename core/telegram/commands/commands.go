// Package commands describes bot commands registered in the telegram registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command binds a slash command to its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage is shown when arguments fail to parse, e.g. "/credit <tg_id> <amount>".
	Usage     string
	AdminOnly bool
	// Hidden keeps the command out of the Telegram menu.
	Hidden bool
	// Aliases are extra slash names or plain texts (reply keyboard labels) that trigger the command.
	Aliases []string
}
