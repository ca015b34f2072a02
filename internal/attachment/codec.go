// Package attachment converts user-supplied image bytes into the
// base64 payload + media type pair the generation gateway expects,
// and back into data URIs for local preview.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// ErrDecode indicates a payload that cannot be parsed into the
// transport format. It is surfaced at selection time; a turn never
// starts with a malformed attachment.
var ErrDecode = errors.New("attachment: malformed payload")

// dataURIPattern matches data:<mediatype>;base64,<payload>.
var dataURIPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// Attachment is a transport-ready encoded image. It is transient:
// created on selection, consumed when a turn is submitted, never
// reused across turns.
type Attachment struct {
	Data     string // base64 payload, no data: prefix
	MIMEType string
}

// Encode converts raw image bytes into an Attachment. The media type
// is sniffed from the content; non-image bytes are rejected.
func Encode(raw []byte) (Attachment, error) {
	if len(raw) == 0 {
		return Attachment{}, fmt.Errorf("%w: empty input", ErrDecode)
	}
	mimeType := http.DetectContentType(raw)
	if !strings.HasPrefix(mimeType, "image/") {
		return Attachment{}, fmt.Errorf("%w: unsupported media type %s", ErrDecode, mimeType)
	}
	return Attachment{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MIMEType: mimeType,
	}, nil
}

// ParseDataURI extracts the payload and media type from a
// data:<type>;base64,<data> URI, the shape a file-picker hands over.
func ParseDataURI(uri string) (Attachment, error) {
	m := dataURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return Attachment{}, fmt.Errorf("%w: not a base64 data URI", ErrDecode)
	}
	if _, err := base64.StdEncoding.DecodeString(m[2]); err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Attachment{Data: m[2], MIMEType: m[1]}, nil
}

// DataURI renders the attachment as a data URI for preview. The
// scheme is exactly what the gateway stores; the payload is never
// transformed differently for display.
func (a Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, a.Data)
}

// Bytes decodes the payload back to raw image bytes.
func (a Attachment) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return raw, nil
}

// IsZero reports whether the attachment carries no payload.
func (a Attachment) IsZero() bool {
	return a.Data == "" && a.MIMEType == ""
}
