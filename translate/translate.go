// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate provides locale-aware formatting for the error and
// diagnostic strings produced by the assembler and simulator.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("educpu: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() reference string through the process
// locale's message printer.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
