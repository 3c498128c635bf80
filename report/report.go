// Package report formats run statistics for people, with numbers grouped
// the way the user's locale expects.
package report

import (
	"io"
	"sort"

	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/psxsim/cop0"
	"github.com/sarchlab/psxsim/timing/core"
)

// NewPrinter returns a printer for the user's locales, falling back to
// en-US when none can be detected.
func NewPrinter(logger *logrus.Logger) *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil && logger != nil {
		logger.WithError(err).Debug("report: locale detection failed")
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// EnglishPrinter returns an en-US printer for reproducible output.
func EnglishPrinter() *message.Printer {
	return message.NewPrinter(language.AmericanEnglish)
}

// Stats writes a summary of core statistics.
func Stats(w io.Writer, p *message.Printer, s core.Stats) {
	_, _ = p.Fprintf(w, "Cycles:        %d\n", s.Cycles)
	_, _ = p.Fprintf(w, "Instructions:  %d\n", s.Instructions)
	_, _ = p.Fprintf(w, "CPI:           %.3f\n", s.CPI())
	_, _ = p.Fprintf(w, "Memory cycles: %d\n", s.MemoryCycles)

	if s.ICacheHits+s.ICacheMisses > 0 {
		rate := float64(s.ICacheHits) / float64(s.ICacheHits+s.ICacheMisses) * 100
		_, _ = p.Fprintf(w, "I-Cache:       %d hits, %d misses (%.1f%%)\n",
			s.ICacheHits, s.ICacheMisses, rate)
	}

	if len(s.Exceptions) == 0 {
		return
	}
	_, _ = p.Fprintf(w, "Exceptions:    %d\n", s.TotalExceptions())
	for _, exc := range sortedExceptions(s.Exceptions) {
		_, _ = p.Fprintf(w, "  %-20s %d\n", exc.String(), s.Exceptions[exc])
	}
}

func sortedExceptions(m map[cop0.Exception]uint64) []cop0.Exception {
	kinds := make([]cop0.Exception, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
