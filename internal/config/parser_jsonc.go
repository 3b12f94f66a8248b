package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Backend   *jsoncBackend   `json:"backend"`
	Job       *jsoncJob       `json:"job"`
	Audio     *jsoncAudio     `json:"audio"`
	Video     *jsoncVideo     `json:"video"`
	ASR       *jsoncASR       `json:"asr"`
	Pacing    *jsoncPacing    `json:"pacing"`
	Timeouts  *jsoncTimeouts  `json:"timeouts"`
	Indicator *jsoncIndicator `json:"indicator"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncBackend struct {
	URL        *string `json:"url"`
	TokenEnv   *string `json:"token_env"`
	HealthPath *string `json:"health_path"`
}

type jsoncJob struct {
	Role        *string `json:"role"`
	Company     *string `json:"company"`
	Description *string `json:"description"`
	Resume      *string `json:"resume"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncVideo struct {
	Enable *bool   `json:"enable"`
	Device *string `json:"device"`
}

type jsoncASR struct {
	Backend      *string `json:"backend"`
	LanguageCode *string `json:"language_code"`
}

type jsoncPacing struct {
	GreetingMS *int `json:"greeting_ms"`
	QuestionMS *int `json:"question_ms"`
}

type jsoncTimeouts struct {
	StartMS      *int `json:"start_ms"`
	TranscribeMS *int `json:"transcribe_ms"`
	EvaluateMS   *int `json:"evaluate_ms"`
	FeedbackMS   *int `json:"feedback_ms"`
	SaveMS       *int `json:"save_ms"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Backend != nil {
		if payload.Backend.URL != nil {
			cfg.Backend.URL = strings.TrimSpace(*payload.Backend.URL)
		}
		if payload.Backend.TokenEnv != nil {
			cfg.Backend.TokenEnv = strings.TrimSpace(*payload.Backend.TokenEnv)
		}
		if payload.Backend.HealthPath != nil {
			cfg.Backend.HealthPath = strings.TrimSpace(*payload.Backend.HealthPath)
		}
	}

	if payload.Job != nil {
		if payload.Job.Role != nil {
			cfg.Job.Role = strings.TrimSpace(*payload.Job.Role)
		}
		if payload.Job.Company != nil {
			cfg.Job.Company = strings.TrimSpace(*payload.Job.Company)
		}
		if payload.Job.Description != nil {
			cfg.Job.Description = *payload.Job.Description
		}
		if payload.Job.Resume != nil {
			cfg.Job.Resume = strings.TrimSpace(*payload.Job.Resume)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Video != nil {
		if payload.Video.Enable != nil {
			cfg.Video.Enable = *payload.Video.Enable
		}
		if payload.Video.Device != nil {
			cfg.Video.Device = strings.TrimSpace(*payload.Video.Device)
		}
	}

	if payload.ASR != nil {
		if payload.ASR.Backend != nil {
			cfg.ASR.Backend = strings.ToLower(strings.TrimSpace(*payload.ASR.Backend))
		}
		if payload.ASR.LanguageCode != nil {
			cfg.ASR.LanguageCode = *payload.ASR.LanguageCode
		}
	}

	if payload.Pacing != nil {
		if payload.Pacing.GreetingMS != nil {
			cfg.Pacing.GreetingMS = *payload.Pacing.GreetingMS
		}
		if payload.Pacing.QuestionMS != nil {
			cfg.Pacing.QuestionMS = *payload.Pacing.QuestionMS
		}
	}

	if payload.Timeouts != nil {
		if payload.Timeouts.StartMS != nil {
			cfg.Timeouts.StartMS = *payload.Timeouts.StartMS
		}
		if payload.Timeouts.TranscribeMS != nil {
			cfg.Timeouts.TranscribeMS = *payload.Timeouts.TranscribeMS
		}
		if payload.Timeouts.EvaluateMS != nil {
			cfg.Timeouts.EvaluateMS = *payload.Timeouts.EvaluateMS
		}
		if payload.Timeouts.FeedbackMS != nil {
			cfg.Timeouts.FeedbackMS = *payload.Timeouts.FeedbackMS
		}
		if payload.Timeouts.SaveMS != nil {
			cfg.Timeouts.SaveMS = *payload.Timeouts.SaveMS
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
