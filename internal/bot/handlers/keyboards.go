package handlers

import "github.com/go-telegram/bot/models"

// Main menu button labels. Pressing a button sends its label as message text.
const (
	ButtonChat     = "💬 Smart chat"
	ButtonInfo     = "ℹ️ Bot info"
	ButtonSettings = "⚙️ Settings"
	ButtonStats    = "📊 Stats"
	ButtonTools    = "🛠️ Tools"
	ButtonHelp     = "📚 Help"
)

// Callback data of the AI settings inline keyboard.
const (
	CallbackChangeModel  = "change_model"
	CallbackSetTemp      = "set_temp"
	CallbackSetMaxTokens = "set_max_tokens"
	CallbackMainMenu     = "main_menu"
)

// mainMenuKeyboard lays the six menu buttons out in three rows of two.
func mainMenuKeyboard(placeholder string) *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: ButtonChat}, {Text: ButtonInfo}},
			{{Text: ButtonSettings}, {Text: ButtonStats}},
			{{Text: ButtonTools}, {Text: ButtonHelp}},
		},
		ResizeKeyboard:        true,
		InputFieldPlaceholder: placeholder,
	}
}

func settingsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔧 Change model", CallbackData: CallbackChangeModel},
				{Text: "⚖️ Temperature", CallbackData: CallbackSetTemp},
			},
			{
				{Text: "📏 Response length", CallbackData: CallbackSetMaxTokens},
				{Text: "🔙 Back", CallbackData: CallbackMainMenu},
			},
		},
	}
}
