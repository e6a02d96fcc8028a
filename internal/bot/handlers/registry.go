package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes how a handler is attached to the bot.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every command, menu button and callback
// handler keyed by a descriptive name. Text that matches none of them goes to
// the default handler from NewMessageHandler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(name string, h tgbot.HandlerFunc) {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}
	button := func(label string, h tgbot.HandlerFunc) {
		handlers[label] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     label,
			Handler:     h,
			MatchType:   tgbot.MatchTypeExact,
		}
	}
	callback := func(data string, h tgbot.HandlerFunc) {
		handlers["callback:"+data] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     data,
			Handler:     h,
			MatchType:   tgbot.MatchTypeExact,
		}
	}

	start := NewStartHandler(deps)
	command("start", start)
	command("help", start)
	command("cancel", NewCancelHandler(deps))
	command("image", NewImageHandler(deps))

	button(ButtonChat, NewChatModeHandler(deps))
	button(ButtonInfo, NewInfoHandler(deps))
	button(ButtonSettings, NewSettingsHandler(deps))
	button(ButtonStats, NewStatsHandler(deps))
	button(ButtonTools, NewToolsHandler(deps))
	button(ButtonHelp, NewHelpHandler(deps))

	settings := NewSettingsCallbackHandler(deps)
	for _, data := range []string{CallbackChangeModel, CallbackSetTemp, CallbackSetMaxTokens, CallbackMainMenu} {
		callback(data, settings)
	}

	return handlers
}
