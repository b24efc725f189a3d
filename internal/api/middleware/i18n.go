package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	// SessionName ist der Name des Session-Cookies
	SessionName = "ponto_session"

	languageKey = "language"
)

// Languages liefert die unterstützten Sprachen, implementiert von *i18n.Translator
type Languages interface {
	Supports(lang string) bool
	DefaultLanguageTag() string
	MatchAcceptLanguage(header string) string
}

// Sessions erstellt die Cookie-Session-Middleware, in der die Sprache gespeichert wird
func Sessions(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 3600, HttpOnly: true})
	return sessions.Sessions(SessionName, store)
}

// Language bestimmt die Sprache der Anfrage. Reihenfolge: ?lang=, Session, Accept-Language, Standard.
// Ein gültiger ?lang= Parameter wird in der Session gespeichert.
func Language(langs Languages) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		lang := ""

		// Sprachparameter der Anfrage in der Session speichern
		if q := c.Query("lang"); q != "" && langs.Supports(q) {
			lang = q
			session.Set(languageKey, lang)
			if err := session.Save(); err != nil {
				log.Warnf("Failed to save language in session: %v", err)
			}
		}

		// Sprache aus der Session abrufen, falls vorhanden
		if lang == "" {
			if stored, ok := session.Get(languageKey).(string); ok && langs.Supports(stored) {
				lang = stored
			}
		}

		if lang == "" {
			lang = langs.MatchAcceptLanguage(c.GetHeader("Accept-Language"))
		}

		// Fallback auf die Standardsprache
		if lang == "" {
			lang = langs.DefaultLanguageTag()
		}

		c.Set(languageKey, lang)
		c.Next()
	}
}

// LanguageFrom liefert die von Language gesetzte Sprache oder fallback
func LanguageFrom(c *gin.Context, fallback string) string {
	if lang := c.GetString(languageKey); lang != "" {
		return lang
	}
	return fallback
}
