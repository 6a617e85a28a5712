package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "structural_mismatch":
			return "構造が一致しません"
		case "missing_field":
			return "必須フィールドが不足しています"
		case "unknown_field":
			return "未知のフィールドです"
		case "unknown_case":
			return "未知のケースです"
		case "conversion_failure":
			return "変換に失敗しました"
		case "no_case_matched":
			return "一致するケースがありません"
		case "malformed_scalar":
			return "スカラー値が不正です"
		case "parse_error":
			return "解析エラー"
		case "duplicate_key":
			return "キーが重複しています"
		case "truncated":
			return "打ち切られました"
		}
	default: // "en"
		switch code {
		case "structural_mismatch":
			return "structural mismatch"
		case "missing_field":
			return "required field missing"
		case "unknown_field":
			return "unknown field"
		case "unknown_case":
			return "unknown case"
		case "conversion_failure":
			return "conversion failed"
		case "no_case_matched":
			return "no case matched"
		case "malformed_scalar":
			return "malformed scalar"
		case "parse_error":
			return "parse error"
		case "duplicate_key":
			return "duplicate key"
		case "truncated":
			return "truncated"
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
