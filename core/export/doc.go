// Package export drives the host application to write plot images and the
// result CSV of the active study case.
package export
