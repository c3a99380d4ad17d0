package api

import "html/template"

// safe marks a stored fragment as trusted markup. Fragments are produced by
// the view renderers, which escape all backend text.
func safe(fragment string) template.HTML {
	return template.HTML(fragment)
}
