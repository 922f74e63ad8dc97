package httpapi

import (
	"net/mail"
	"strings"

	"tilakamserver/internal/domain"
)

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func validEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

func validPassword(s string) bool {
	return len(s) >= 8 && len(s) <= 128
}

func parseLanguage(s string) (domain.Language, bool) {
	switch domain.Language(s) {
	case domain.LanguageTelugu:
		return domain.LanguageTelugu, true
	case domain.LanguageEnglish:
		return domain.LanguageEnglish, true
	}
	return "", false
}

func parsePostType(s string) (domain.PostType, bool) {
	switch domain.PostType(s) {
	case domain.PostTypePoem:
		return domain.PostTypePoem, true
	case domain.PostTypeStory:
		return domain.PostTypeStory, true
	case domain.PostTypeEssay:
		return domain.PostTypeEssay, true
	}
	return "", false
}
