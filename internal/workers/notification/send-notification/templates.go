// internal/workers/notification/send-notification/templates.go
package sendnotification

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"bidbuddy-workers/internal/models"
)

type templateFile struct {
	Templates []models.NotificationTemplate `json:"templates"`
}

// LoadTemplates reads the template registry and indexes it by notification type.
func LoadTemplates(path string) (map[string]models.NotificationTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template registry: %w", err)
	}
	return ParseTemplates(data)
}

func ParseTemplates(data []byte) (map[string]models.NotificationTemplate, error) {
	var file templateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template registry: %w", err)
	}

	out := make(map[string]models.NotificationTemplate, len(file.Templates))
	for _, t := range file.Templates {
		if t.Type == "" || t.Subject == "" || t.Body == "" {
			return nil, fmt.Errorf("template %q: type, subject and body are required", t.ID)
		}
		if _, dup := out[t.Type]; dup {
			return nil, fmt.Errorf("duplicate template for type %s", t.Type)
		}
		out[t.Type] = t
	}
	return out, nil
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// renderTemplate substitutes {{key}} placeholders. Unknown keys render empty.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		v, ok := data[key]
		if !ok || v == nil {
			return ""
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return fmt.Sprintf("%.1f", val)
		default:
			return fmt.Sprintf("%v", val)
		}
	})
}
