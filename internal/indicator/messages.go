package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	greeting   string
	waiting    string
	listening  string
	analyzing  string
	generating string
	errorText  string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			greeting:   "Welcome to your mock interview. Your first question is coming up.",
			waiting:    "Run \"viva speak\" when you are ready to answer",
			listening:  "Listening…",
			analyzing:  "Analyzing your answer…",
			generating: "Generating your session feedback…",
			errorText:  "Interview session error",
		}
	}
}
