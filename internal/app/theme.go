package app

import (
	"log"

	"github.com/nhle/ghostmail/internal/theme"
)

// applyTheme switches the global palette, falling back to the default
// palette for names that are no longer known.
func applyTheme(name string) {
	if theme.Apply(name) {
		return
	}
	log.Printf("unknown theme %q, using %s", name, theme.Names()[0])
	theme.Apply(theme.Names()[0])
}
