// Package logging centralizes slog construction and the structured field
// vocabulary used across chartcap. Components log through a *slog.Logger
// tagged with a component attribute; the console handler folds that
// attribute into the message prefix.
package logging
