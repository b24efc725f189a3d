// Package i18n stellt die übersetzten Bedienermeldungen des Kiosks bereit
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Nachrichten-IDs
const (
	MsgCameraStarting       = "CameraStarting"
	MsgCameraStarted        = "CameraStarted"
	MsgCameraPaused         = "CameraPaused"
	MsgCameraUnavailable    = "CameraUnavailable"
	MsgNotEnrolled          = "NotEnrolled"
	MsgAttendanceRegistered = "AttendanceRegistered"
	MsgLookupFailed         = "LookupFailed"
	MsgRegisterFailed       = "RegisterFailed"
	MsgStorageUnavailable   = "StorageUnavailable"
	MsgRemainingTime        = "RemainingTime"
)

// DefaultLanguage gilt, wenn keine oder eine unbekannte Sprache angefragt wird
const DefaultLanguage = "pt-BR"

//go:embed locales/*.json
var localeFS embed.FS

// Translator hält das Nachrichtenbündel aller eingebetteten Sprachen
type Translator struct {
	bundle          *goi18n.Bundle
	defaultLanguage string
	supported       map[string]bool
	tags            []language.Tag
	matcher         language.Matcher
}

// New lädt die eingebetteten Nachrichtendateien. Ein leeres defaultLanguage wird zu DefaultLanguage
func New(defaultLanguage string) (*Translator, error) {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	tag, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLanguage, err)
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}

	t := &Translator{
		bundle:          bundle,
		defaultLanguage: tag.String(),
		supported:       make(map[string]bool),
		tags:            []language.Tag{tag},
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		mf, err := bundle.LoadMessageFileFS(localeFS, path.Join("locales", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", f.Name(), err)
		}
		t.supported[strings.ToLower(mf.Tag.String())] = true
		if mf.Tag != tag {
			t.tags = append(t.tags, mf.Tag)
		}
		log.Debugf("Loaded %d messages for language %s", len(mf.Messages), mf.Tag)
	}
	if !t.supported[strings.ToLower(t.defaultLanguage)] {
		return nil, fmt.Errorf("no messages for default language %s", t.defaultLanguage)
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// MustNew wie New, bricht aber bei Fehlern mit panic ab
func MustNew(defaultLanguage string) *Translator {
	t, err := New(defaultLanguage)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultLanguageTag liefert die kanonische Standardsprache
func (t *Translator) DefaultLanguageTag() string {
	return t.defaultLanguage
}

// Supports meldet, ob es Nachrichten für lang gibt
func (t *Translator) Supports(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	return t.supported[strings.ToLower(tag.String())]
}

// MatchAcceptLanguage wählt die beste unterstützte Sprache zu einem Accept-Language-Header.
// Bei leerem, fehlerhaftem oder unpassendem Header ist das Ergebnis ""
func (t *Translator) MatchAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return ""
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return ""
	}
	return t.tags[idx].String()
}

// Localizer liefert einen Localizer für die bevorzugten Sprachen mit Rückfall auf die Standardsprache
func (t *Translator) Localizer(langs ...string) *Localizer {
	return &Localizer{l: goi18n.NewLocalizer(t.bundle, append(langs, t.defaultLanguage)...)}
}

// Localizer erzeugt Meldungen für eine Liste bevorzugter Sprachen
type Localizer struct {
	l *goi18n.Localizer
}

// Localize erzeugt die Meldung id mit data. Unbekannte IDs erscheinen unverändert
func (l *Localizer) Localize(id string, data map[string]any) string {
	msg, err := l.l.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		log.Debugf("Missing translation for %s: %v", id, err)
		return id
	}
	return msg
}
