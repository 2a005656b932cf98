// Package portal loads setting.json: the per-portal column mappings and
// threshold sources, plus the notification and alert settings shared by all
// portals.
package portal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	ErrPortalNotFound         = errors.New("portal not defined in settings")
	ErrMissingThresholdSource = errors.New("portal has no min_stock_source")
	ErrInvalidSettings        = errors.New("invalid settings file")
)

// FlexString accepts either a JSON string or a JSON number. Settings files
// written by hand mix both for ids and column indices.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Settings is the root of setting.json.
type Settings struct {
	Chatwork ChatworkSettings   `json:"chatwork"`
	Email    *EmailSettings     `json:"email,omitempty"`
	Alert    AlertSettings      `json:"alert"`
	Portals  map[string]*Config `json:"portals"`
}

// ChatworkSettings configures the chat room alerts are posted to.
type ChatworkSettings struct {
	APIBaseURL      string          `json:"api_base_url"`
	RoomID          FlexString      `json:"room_id"`
	MessageEndpoint string          `json:"message_endpoint"`
	MentionMembers  []MentionMember `json:"mention_members"`
	TemplatePath    string          `json:"template_path"`
}

// MentionMember is a chat account addressed at the top of an alert.
type MentionMember struct {
	AccountID FlexString `json:"account_id"`
	Name      string     `json:"name"`
}

// EmailSettings enables the optional email copy of alerts.
type EmailSettings struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
}

// AlertSettings selects how stock is compared with thresholds.
type AlertSettings struct {
	Comparator       string `json:"comparator"`
	MissingThreshold string `json:"missing_threshold"`
}

// Load reads and decodes a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings JSON.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.Portals == nil {
		s.Portals = map[string]*Config{}
	}
	return &s, nil
}

// Lookup finds a portal by name, ignoring case. It returns the key as written
// in the settings file.
func (s *Settings) Lookup(name string) (string, *Config, error) {
	if cfg, ok := s.Portals[name]; ok && cfg != nil {
		return name, cfg, nil
	}
	for _, key := range s.Names() {
		if strings.EqualFold(key, name) && s.Portals[key] != nil {
			return key, s.Portals[key], nil
		}
	}
	return "", nil, fmt.Errorf("%w: %q", ErrPortalNotFound, name)
}

// Names returns the configured portal names in sorted order.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(s.Portals))
	for name := range s.Portals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets returns the portals that have a threshold source, keyed by
// lower-cased name.
func (s *Settings) Targets() map[string]string {
	out := make(map[string]string)
	for _, name := range s.Names() {
		cfg := s.Portals[name]
		if cfg == nil || cfg.ThresholdSource() == "" {
			continue
		}
		out[strings.ToLower(name)] = name
	}
	return out
}
