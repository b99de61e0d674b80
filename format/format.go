// Package format renders collected session data into the ad text shown
// in the preview and published to the feed.
package format

import (
	"strconv"
	"strings"

	"github.com/sardorm/telegram-elon-bot/flow"
)

type Formatter struct {
	texts flow.TextProvider
}

func New(texts flow.TextProvider) *Formatter {
	return &Formatter{texts: texts}
}

// RenderSummary builds the ad text. Fields appear in collection order;
// skipped and unanswered fields are left out, except the description
// which gets an explicit "no description" line.
func (f *Formatter) RenderSummary(s *flow.Session) string {
	lang := s.Lang
	parts := []string{f.texts.Resolve("preview_title_"+string(s.Category), lang, nil)}

	if s.Fields != nil {
		for _, id := range s.Fields.FieldIDs() {
			v, ok := s.Fields.Get(id)
			if !ok || !v.Filled {
				continue
			}
			parts = append(parts, f.texts.Resolve("preview_field_"+string(id), lang,
				map[string]string{"value": f.displayValue(id, v, lang)}))
		}
	}

	if s.Price.Filled {
		parts = append(parts, f.texts.Resolve("preview_field_price", lang,
			map[string]string{"value": s.Price.Text}))
	}
	if s.Location.Filled {
		parts = append(parts, f.texts.Resolve("preview_field_location", lang,
			map[string]string{"value": s.Location.Text}))
	}
	if s.Description.Filled {
		parts = append(parts, f.texts.Resolve("preview_field_description", lang,
			map[string]string{"value": s.Description.Text}))
	} else {
		parts = append(parts, f.texts.Resolve("preview_field_no_description", lang, nil))
	}

	if line := f.mediaLine(s, lang); line != "" {
		parts = append(parts, line)
	}

	return strings.Join(parts, "\n")
}

// displayValue localizes choice answers; free text is shown as entered.
func (f *Formatter) displayValue(id flow.FieldID, v flow.Value, lang string) string {
	switch id {
	case flow.FieldHousePropertyType:
		return f.texts.Resolve("property_type_"+v.Text, lang, nil)
	case flow.FieldAnimalSex:
		return f.texts.Resolve("animal_sex_"+v.Text, lang, nil)
	}
	return v.Text
}

func (f *Formatter) mediaLine(s *flow.Session, lang string) string {
	if len(s.Media) == 0 {
		return ""
	}
	photos, videos := 0, 0
	for _, m := range s.Media {
		switch m.Type {
		case flow.MediaPhoto:
			photos++
		case flow.MediaVideo:
			videos++
		}
	}

	key := "preview_media_info_mixed"
	switch {
	case videos == 0:
		key = "preview_media_info_photo"
	case photos == 0:
		key = "preview_media_info_video"
	}
	return f.texts.Resolve(key, lang, map[string]string{"count": strconv.Itoa(len(s.Media))})
}
