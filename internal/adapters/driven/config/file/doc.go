// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - LocaleWatcher: fsnotify-driven LocaleSource over the config file
//
// DecodeSettings turns a ConfigStore into typed domain.Settings.
package file
