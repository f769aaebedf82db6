package domain

// SendMessageCommand carries a participant's intent to post a message.
// From is asserted by the caller and is not verified.
type SendMessageCommand struct {
	From string `validate:"required"`
	To   string `validate:"required"`
	Text string `validate:"required"`
	Type string `validate:"required,oneof=message private_message"`
}

type EditMessageCommand struct {
	MessageID string `validate:"required"`
	From      string `validate:"required"`
	To        string `validate:"required"`
	Text      string `validate:"required"`
	Type      string `validate:"required,oneof=message private_message"`
}

type DeleteMessageCommand struct {
	MessageID string `validate:"required"`
	Caller    string `validate:"required"`
}

type ListMessagesCommand struct {
	User  string `validate:"required"`
	Limit int
}

type SearchMessagesCommand struct {
	User  string `validate:"required"`
	Query string `validate:"required"`
	Limit int
}
