// Package templates renders the HTML pages of the opname service.
package templates
