package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Body is a request payload that knows its own content type.
type Body interface {
	Encode() (contentType string, r io.Reader, err error)
}

type jsonBody struct {
	value any
}

// JSONBody encodes value as application/json.
func JSONBody(value any) Body {
	return jsonBody{value: value}
}

func (b jsonBody) Encode() (string, io.Reader, error) {
	raw, err := json.Marshal(b.value)
	if err != nil {
		return "", nil, fmt.Errorf("marshal json body: %w", err)
	}
	return "application/json", bytes.NewReader(raw), nil
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

// Form is a multipart/form-data payload. Fields keep insertion order.
type Form struct {
	fields []formField
	files  []formFile
}

func NewForm() *Form {
	return &Form{}
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// File appends a binary part; the content type is sniffed from the data.
func (f *Form) File(field, filename string, data []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, data: data})
	return f
}

// Value returns the first value recorded for name.
func (f *Form) Value(name string) (string, bool) {
	for _, field := range f.fields {
		if field.name == name {
			return field.value, true
		}
	}
	return "", false
}

// HasFile reports whether a file part was attached under field.
func (f *Form) HasFile(field string) bool {
	for _, file := range f.files {
		if file.field == field {
			return true
		}
	}
	return false
}

func (f *Form) Encode() (string, io.Reader, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return "", nil, fmt.Errorf("write form field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.field), quoteEscaper.Replace(file.filename)))
		header.Set("Content-Type", mimetype.Detect(file.data).String())
		part, err := w.CreatePart(header)
		if err != nil {
			return "", nil, fmt.Errorf("create form file %s: %w", file.field, err)
		}
		if _, err := part.Write(file.data); err != nil {
			return "", nil, fmt.Errorf("write form file %s: %w", file.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return w.FormDataContentType(), buf, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
