// Package domain defines core data models, contracts and the error taxonomy
// shared across the app. It contains plain types (wire/state), interfaces
// and sentinel errors only.
package domain
