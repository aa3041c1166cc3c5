// Package report writes the completion descriptor that hands a finished
// capture cycle over to the external collaborator, and retires the request
// marker that started it.
package report
