package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	CookieName = "lang"
	QueryParam = "lang"
)

// Bundle holds the message catalog for every supported locale.
type Bundle struct {
	catalog  *catalog.Builder
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
	fallback language.Tag
}

func NewBundle(defaultLocale string) *Bundle {
	fallback := language.Make(defaultLocale)
	if fallback == language.Und {
		fallback = language.Bulgarian
	}

	b := &Bundle{
		catalog:  catalog.NewBuilder(catalog.Fallback(fallback)),
		messages: make(map[language.Tag]map[string]string),
		fallback: fallback,
	}

	tags := []language.Tag{fallback}
	for tag, msgs := range defaultMessages {
		b.register(tag, msgs)
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	b.matcher = language.NewMatcher(tags)
	return b
}

func (b *Bundle) register(tag language.Tag, msgs map[string]string) {
	if b.messages[tag] == nil {
		b.messages[tag] = make(map[string]string, len(msgs))
	}
	for key, text := range msgs {
		b.messages[tag][key] = text
		// catalog entries are format strings; the bundled texts are literal
		_ = b.catalog.SetString(tag, key, strings.ReplaceAll(text, "%", "%%"))
	}
}

// Translator returns a translator for the best match of locale.
func (b *Bundle) Translator(locale string) Translator {
	tag, _ := language.MatchStrings(b.matcher, locale)
	return b.translator(tag)
}

// Negotiate picks the locale from the lang query parameter, the lang cookie
// and then Accept-Language.
func (b *Bundle) Negotiate(r *http.Request) Translator {
	var candidates []string
	if q := r.URL.Query().Get(QueryParam); q != "" {
		candidates = append(candidates, q)
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		candidates = append(candidates, c.Value)
	}
	candidates = append(candidates, r.Header.Get("Accept-Language"))

	tag, _ := language.MatchStrings(b.matcher, candidates...)
	return b.translator(tag)
}

func (b *Bundle) translator(tag language.Tag) Translator {
	base, _ := tag.Base()
	resolved := b.fallback
	for known := range b.messages {
		if kb, _ := known.Base(); kb == base {
			resolved = known
			break
		}
	}
	return Translator{
		tag:      resolved,
		bundle:   b,
		printer:  message.NewPrinter(resolved, message.Catalog(b.catalog)),
		fallback: b.fallback,
	}
}

type Translator struct {
	tag      language.Tag
	fallback language.Tag
	bundle   *Bundle
	printer  *message.Printer
}

// Locale is the short locale code, e.g. "bg".
func (t Translator) Locale() string {
	base, _ := t.tag.Base()
	return base.String()
}

// T translates key. Unknown keys come back unchanged.
func (t Translator) T(key string, args ...any) string {
	if t.bundle == nil {
		return key
	}
	if !t.bundle.has(t.tag, key) && !t.bundle.has(t.fallback, key) {
		return key
	}
	return t.printer.Sprintf(key, args...)
}

func (b *Bundle) has(tag language.Tag, key string) bool {
	_, ok := b.messages[tag][key]
	return ok
}
