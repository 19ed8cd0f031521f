package config

const (
	// TopicChatTurn carries one event per answered question.
	TopicChatTurn = "chat.turn"

	// ChannelTurnLog is the consumer channel that persists turn events.
	ChannelTurnLog = "turnlog"
)
