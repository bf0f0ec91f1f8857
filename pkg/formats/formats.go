// Package formats provides codecs for the ASCII model pipeline file formats:
// models and animations (.mdl), walkmeshes (.wok) and area layouts (.lyt).
package formats
