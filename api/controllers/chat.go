package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/api/validators"
	"github.com/angelmondragon/bazaar-console/internal/chat"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

const (
	maxChatTextLength = 8000
	chatFormOverhead  = 1 << 20
)

type ChatSession interface {
	Send(ctx context.Context, text string, attachment *chat.Attachment) (chat.Message, error)
	View() chat.View
}

type chatMessageRequest struct {
	Text string `json:"text" validate:"max=8000"`
}

type chatMessageResponse struct {
	Reply chat.Message `json:"reply"`
	Chat  chat.View    `json:"chat"`
}

func ChatView(session ChatSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, session.View())
	}
}

// ChatSend sends one message. The body is JSON {"text": ...} or a multipart form with a
// text field and an optional attachment file.
func ChatSend(cfg *config.Config, session ChatSession, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		text, attachment, err := readChatMessage(w, r, cfg.Console.MaxAttachmentBytes())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reply, err := session.Send(ctx, text, attachment)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, chatMessageResponse{Reply: reply, Chat: session.View()})
	}
}

func readChatMessage(w http.ResponseWriter, r *http.Request, maxAttachment int64) (string, *chat.Attachment, error) {
	if !validators.IsMultipart(r) {
		var req chatMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return "", nil, err
		}
		return req.Text, nil, nil
	}

	if err := validators.ParseMultipartForm(w, r, maxAttachment+chatFormOverhead); err != nil {
		return "", nil, err
	}
	text := validators.FormValue(r, "text", maxChatTextLength)
	file, err := validators.FormFile(r, "attachment", maxAttachment)
	if err != nil || file == nil {
		return text, nil, err
	}
	return text, &chat.Attachment{Filename: file.Filename, ContentType: file.ContentType, Data: file.Data}, nil
}
