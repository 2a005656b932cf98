// Package notify renders shortage alerts and delivers them to chat and email.
package notify

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/FACorreiaa/stock-alert/internal/domain/alert"
	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
)

// DefaultTemplate is used when no template_path is configured. It uses the
// chat service's [To:id] mention and [info] block notation.
const DefaultTemplate = `{{range .MentionMembers}}[To:{{.AccountID}}]{{.Name}}さん
{{end}}[info][title]在庫アラート ({{len .Alerts}}件)[/title]{{range .Alerts}}
[{{.PortalName}}] {{.ProductCode}} 在庫数: {{.CurrentStock}} / 最低在庫数: {{.MinStock}}{{end}}[/info]`

// MessageAlert is one shortage as exposed to templates.
type MessageAlert struct {
	PortalName   string
	ProductCode  string
	CurrentStock int64
	MinStock     int64
}

// MessageData is the template input.
type MessageData struct {
	MentionMembers []portal.MentionMember
	Alerts         []MessageAlert
}

// Renderer builds alert messages from a template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses text as a message template. Empty text selects
// DefaultTemplate.
func NewRenderer(text string) (*Renderer, error) {
	if text == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("alert").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// LoadRenderer reads a template file; an empty path selects DefaultTemplate.
func LoadRenderer(path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read message template: %w", err)
	}
	return NewRenderer(string(data))
}

// Render produces one message covering every shortage.
func (r *Renderer) Render(members []portal.MentionMember, shortages []alert.Shortage) (string, error) {
	data := MessageData{
		MentionMembers: members,
		Alerts:         make([]MessageAlert, 0, len(shortages)),
	}
	for _, s := range shortages {
		data.Alerts = append(data.Alerts, MessageAlert{
			PortalName:   s.Portal,
			ProductCode:  s.Code,
			CurrentStock: s.Current,
			MinStock:     s.Min,
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	return buf.String(), nil
}

// Chunk splits message into pieces of at most size runes.
func Chunk(message string, size int) []string {
	runes := []rune(message)
	if size <= 0 || len(runes) <= size {
		return []string{message}
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
