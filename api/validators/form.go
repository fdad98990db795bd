package validators

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
)

// UploadedFile is a file part read from a multipart request.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ParseMultipartForm parses a multipart body of at most maxBytes.
func ParseMultipartForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !IsMultipart(r) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expected multipart/form-data body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").
				WithDetails(map[string]any{"limitBytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	return nil
}

// FormValue returns the trimmed value of a parsed multipart field.
func FormValue(r *http.Request, key string, maxLen int) string {
	if r.MultipartForm == nil {
		return ""
	}
	values := r.MultipartForm.Value[key]
	if len(values) == 0 {
		return ""
	}
	return SanitizeString(values[0], maxLen)
}

// FormFile reads an optional file part. It returns nil without error when the field is
// absent and refuses files larger than maxBytes when maxBytes > 0.
func FormFile(r *http.Request, field string, maxBytes int64) (*UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file field").WithDetails(map[string]any{"field": field})
	}
	defer func() { _ = file.Close() }()

	if maxBytes > 0 && header.Size > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s exceeds %d bytes", field, maxBytes)).
			WithDetails(map[string]any{"field": field, "size": header.Size})
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file field").WithDetails(map[string]any{"field": field})
	}
	return &UploadedFile{
		Filename:    strings.TrimSpace(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
