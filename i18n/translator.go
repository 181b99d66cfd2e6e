package i18n

// Translator retrieves localized messages for detail codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "coercion_failed":
			return "値を変換できません"
		case "validation_failed":
			return "検証に失敗しました"
		case "required_field":
			return "必須フィールドが不足しています"
		case "null_not_allowed":
			return "nullは許可されていません"
		case "invalid_format":
			return "書式が不正です"
		case "value_too_small":
			return "値が小さすぎます"
		case "value_too_large":
			return "値が大きすぎます"
		case "length_too_short":
			return "短すぎます"
		case "length_too_long":
			return "長すぎます"
		case "unknown_field":
			return "未知のフィールドです"
		case "configuration_error":
			return "構成が不正です"
		case "frozen_instance":
			return "凍結されたレコードは変更できません"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "coercion_failed":
			return "value cannot be coerced"
		case "validation_failed":
			return "validation failed"
		case "required_field":
			return "required field missing"
		case "null_not_allowed":
			return "null is not allowed"
		case "invalid_format":
			return "invalid format"
		case "value_too_small":
			return "value too small"
		case "value_too_large":
			return "value too large"
		case "length_too_short":
			return "too short"
		case "length_too_long":
			return "too long"
		case "unknown_field":
			return "unknown field"
		case "configuration_error":
			return "invalid configuration"
		case "frozen_instance":
			return "frozen record cannot be modified"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
