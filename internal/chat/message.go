package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaar-console/pkg/enums"
)

// Message is one transcript entry.
type Message struct {
	ID        uuid.UUID         `json:"id"`
	Role      enums.MessageRole `json:"role"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Attachment is a file the user sends along with a chat message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the attachment length in bytes.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// Prompt is what a Completer receives for one exchange. History is empty unless the
// session was built WithHistory.
type Prompt struct {
	Text    string
	History []Message
}

// View is the render form of a session.
type View struct {
	Pending  bool      `json:"pending"`
	Messages []Message `json:"messages"`
}
