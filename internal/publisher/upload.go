package publisher

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"

	"thermostat_relay/internal/thermostat"
)

// HTTPUploadSink posts the status document to the config server as a multipart
// form with a single "file" part, named after the last segment of the URL path.
type HTTPUploadSink struct {
	url    string
	client *http.Client
}

func NewHTTPUploadSink(uploadURL string, client *http.Client) *HTTPUploadSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploadSink{url: uploadURL, client: client}
}

func (s *HTTPUploadSink) Publish(ctx context.Context, st thermostat.Status) error {
	doc, err := Encode(st)
	if err != nil {
		return err
	}
	u, err := url.Parse(s.url)
	if err != nil {
		return fmt.Errorf("upload url: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(u.Path)))
	h.Set("Content-Type", "text/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(doc); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload status: server returned %s", resp.Status)
	}
	return nil
}
