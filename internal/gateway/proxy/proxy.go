package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Upstream Proxy
// ============================================================

const DefaultTimeout = 60 * time.Second

// Upstream пересылает запросы одному сервису.
type Upstream struct {
	Name    string
	BaseURL string
	client  *http.Client
}

func NewUpstream(name, baseURL string, timeout time.Duration) *Upstream {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Upstream{
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Handler пересылает хвост пути (wildcard) вместе с query string.
// /api/v1/lighting/frame?x=1 -> <base>/frame?x=1
func (u *Upstream) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		target := u.BaseURL + "/" + strings.TrimLeft(c.Params("*"), "/")
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}
		return u.forward(c, target)
	}
}

// forward проксирует любой метод с учетом multipart/raw.
func (u *Upstream) forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%s, %d bytes)", c.Method(), c.Path(), targetURL, u.Name, len(c.Body()))

	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return u.send(c, targetURL, contentType, c.Body())
	}

	body, formType, err := rebuildMultipart(c)
	if err != nil {
		log.Printf("[PROXY] Failed to parse multipart: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
	}
	return u.send(c, targetURL, formType, body)
}

func (u *Upstream) send(c fiber.Ctx, targetURL, contentType string, body []byte) error {
	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := c.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] %s unreachable: %v", u.Name, err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": fmt.Sprintf("failed to reach %s service", u.Name)})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

// rebuildMultipart пересобирает форму: файлы и поля в новом теле.
func rebuildMultipart(c fiber.Ctx) ([]byte, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				log.Printf("[PROXY] Failed to open file: %v", err)
				continue
			}

			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
			h.Set("Content-Type", fileHeader.Header.Get("Content-Type"))

			part, err := writer.CreatePart(h)
			if err != nil {
				file.Close()
				return nil, "", fmt.Errorf("create part: %w", err)
			}
			_, err = io.Copy(part, file)
			file.Close()
			if err != nil {
				return nil, "", fmt.Errorf("copy part: %w", err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", fmt.Errorf("write field: %w", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && key != "Content-Length" {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
