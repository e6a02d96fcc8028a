package database

import "time"

// Direction tells whether a transcript line came from the user or the bot.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Message is one line of the chat-mode transcript.
type Message struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Text      string    `db:"text"`
	Direction Direction `db:"direction"`
	CreatedAt time.Time `db:"created_at"`
}
