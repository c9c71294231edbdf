package driven

// LocaleSource supplies the current display locale and reports changes.
type LocaleSource interface {
	// Current returns the active BCP 47 locale tag.
	Current() string

	// Subscribe registers fn for locale changes. The returned function
	// removes the subscription and is safe to call more than once.
	Subscribe(fn func(locale string)) (cancel func())
}
