package chat

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

// Uploader stores a chat attachment before the message it belongs to is sent.
type Uploader interface {
	Upload(ctx context.Context, attachment Attachment) error
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, attachment Attachment) error

func (f UploaderFunc) Upload(ctx context.Context, attachment Attachment) error {
	return f(ctx, attachment)
}

type logUploader struct {
	logg     *logger.Logger
	maxBytes int64
}

// NewLogUploader accepts attachments by recording them in the log. Attachments that are
// empty or larger than maxBytes are refused; maxBytes <= 0 disables the cap.
func NewLogUploader(logg *logger.Logger, maxBytes int64) Uploader {
	if logg == nil {
		logg = logger.Nop()
	}
	return logUploader{logg: logg, maxBytes: maxBytes}
}

func (u logUploader) Upload(ctx context.Context, attachment Attachment) error {
	if attachment.Size() == 0 {
		return pkgerrors.New(pkgerrors.CodeAttachment, "attachment is empty")
	}
	if u.maxBytes > 0 && attachment.Size() > u.maxBytes {
		return pkgerrors.New(pkgerrors.CodeAttachment, fmt.Sprintf("attachment exceeds %d bytes", u.maxBytes)).
			WithDetails(map[string]any{"filename": attachment.Filename, "size": attachment.Size()})
	}
	ctx = u.logg.WithFields(ctx, map[string]any{
		"filename":     attachment.Filename,
		"content_type": attachment.ContentType,
		"size":         attachment.Size(),
	})
	u.logg.Info(ctx, "chat attachment received")
	return nil
}
