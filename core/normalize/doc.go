// Package normalize reshapes a host result CSV into the canonical short-name
// schema.
//
// The host writes two header rows (object and variable) with ';' as column
// separator and ',' as decimal separator. Known variable labels are renamed
// through a Mapping. Exactly one column may be left over: it is the externally
// supplied reference signal and gets renamed and divided by a scale factor.
// Two or more unknown columns abort the run before anything is written.
package normalize
