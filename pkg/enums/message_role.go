package enums

// MessageRole identifies the author of a chat transcript entry.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// String implements fmt.Stringer.
func (m MessageRole) String() string {
	return string(m)
}

// WireRole is the role name the generative endpoint expects in conversation history.
func (m MessageRole) WireRole() string {
	if m == MessageRoleAssistant {
		return "model"
	}
	return "user"
}
