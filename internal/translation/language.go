package translation

// MapLanguage converts a stored language code to the provider's code.
// The empty code asks the provider to detect the language.
func MapLanguage(code string) string {
	switch code {
	case "":
		return "auto"
	case "eng", "en":
		return "en"
	case "zh", "zh-CHS", "zh_CN":
		return "zh-CHS"
	case "spa":
		return "es"
	case "fra":
		return "fr"
	default:
		return code
	}
}
