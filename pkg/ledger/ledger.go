// Package ledger maintains the rolling window of deferred amortization bases
// keyed by vintage year. A plan carries two independent ledgers, one for
// experience bases and one for assumption-change bases; the algorithm is
// identical for both.
package ledger

import (
	"errors"
	"fmt"

	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"go.uber.org/zap"
)

// ErrNonContiguousVintage indicates an AdvanceYear call whose vintage year
// does not extend the existing sequence by exactly one. The ledger is left
// unmutated.
var ErrNonContiguousVintage = errors.New("non-contiguous vintage year")

// ErrWindowOverflow indicates the window invariant failed after an eviction.
// This is an internal defect and must halt processing.
var ErrWindowOverflow = errors.New("ledger window overflow")

// Entry is one deferred amortization base. The ARSL is a property of the
// vintage, frozen at creation; only the entry's position in the window
// changes as the ledger advances.
type Entry struct {
	VintageYear int     `json:"vintage_year" yaml:"vintageYear"`
	BaseAmount  float64 `json:"base_amount" yaml:"baseAmount"`
	ARSL        float64 `json:"arsl" yaml:"arsl"`
}

// Ledger holds at most Window entries ordered by vintage year descending,
// most recent first. It is not safe for concurrent mutation; callers must
// serialize writes.
type Ledger struct {
	window  int
	entries []Entry
	logger  *zap.Logger
}

// New creates an empty ledger with the given window length. A non-positive
// window falls back to the default reporting window. If logger is nil, a
// no-op logger is used.
func New(window int, logger *zap.Logger) *Ledger {
	if window <= 0 {
		window = constants.DefaultAmortizationWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{window: window, logger: logger}
}

// Seed populates an empty ledger from persisted entries. Entries may arrive
// in any order; they are sorted most recent first and checked for duplicate
// or gapped vintage years.
func (l *Ledger) Seed(entries []Entry) error {
	if len(l.entries) != 0 {
		return fmt.Errorf("cannot seed a non-empty ledger (%d entries present)", len(l.entries))
	}
	if len(entries) > l.window {
		return fmt.Errorf("seed of %d entries exceeds window %d", len(entries), l.window)
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].VintageYear > sorted[j-1].VintageYear; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].VintageYear != sorted[i].VintageYear+1 {
			return fmt.Errorf("%w: seed vintages %d and %d are not consecutive",
				ErrNonContiguousVintage, sorted[i].VintageYear, sorted[i-1].VintageYear)
		}
	}
	for _, entry := range sorted {
		if entry.ARSL < 0 {
			return fmt.Errorf("seed vintage %d has negative arsl %v", entry.VintageYear, entry.ARSL)
		}
	}
	l.entries = sorted
	return nil
}

// Window returns the maximum number of entries the ledger retains.
func (l *Ledger) Window() int {
	return l.window
}

// Len returns the number of entries currently in the window.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// MaxVintage returns the most recent vintage year, and false when the ledger
// is empty.
func (l *Ledger) MaxVintage() (int, bool) {
	if len(l.entries) == 0 {
		return 0, false
	}
	return l.entries[0].VintageYear, true
}

// EntryForVintage looks up the entry originated in the given year.
func (l *Ledger) EntryForVintage(year int) (Entry, bool) {
	for _, entry := range l.entries {
		if entry.VintageYear == year {
			return entry, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the window, most recent vintage first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// AdvanceYear shifts every existing entry's position by one period, inserts
// a new entry as the most recent vintage, and evicts the oldest entry when
// the window would otherwise exceed its length. The evicted entry, if any,
// is returned so the caller can remove it from dependent reporting tables.
//
// The new vintage year must be exactly one greater than the current most
// recent vintage; violating this returns ErrNonContiguousVintage with the
// ledger unmutated. ARSL values of existing entries are never touched.
func (l *Ledger) AdvanceYear(vintageYear int, baseAmount, arsl float64) (*Entry, error) {
	if arsl < 0 {
		return nil, fmt.Errorf("arsl must be non-negative, got %v", arsl)
	}
	if max, ok := l.MaxVintage(); ok && vintageYear != max+1 {
		return nil, fmt.Errorf("%w: got vintage %d, current most recent vintage is %d",
			ErrNonContiguousVintage, vintageYear, max)
	}

	l.entries = append([]Entry{{VintageYear: vintageYear, BaseAmount: baseAmount, ARSL: arsl}}, l.entries...)

	var evicted *Entry
	if len(l.entries) > l.window {
		oldest := l.entries[len(l.entries)-1]
		l.entries = l.entries[:len(l.entries)-1]
		evicted = &oldest
		l.logger.Debug(fmt.Sprintf("evicted vintage %d base %.2f from amortization window", oldest.VintageYear, oldest.BaseAmount),
			zap.String("op", "ledger.AdvanceYear"),
		)
	}

	if len(l.entries) > l.window {
		return evicted, fmt.Errorf("%w: %d entries remain after eviction (window %d)",
			ErrWindowOverflow, len(l.entries), l.window)
	}

	l.logger.Debug(fmt.Sprintf("inserted vintage %d base %.2f arsl %.1f", vintageYear, baseAmount, arsl),
		zap.String("op", "ledger.AdvanceYear"),
	)
	return evicted, nil
}

// RecognizedAmountThisPeriod sums the straight-line annual recognition slice
// base/arsl over all entries still within their own recognition period. An
// entry whose elapsed periods since origination have reached its ARSL
// contributes zero but remains in the window until evicted; recognition
// completion and window eviction are independent thresholds.
func (l *Ledger) RecognizedAmountThisPeriod() float64 {
	currentYear, ok := l.MaxVintage()
	if !ok {
		return 0
	}
	total := 0.0
	for _, entry := range l.entries {
		if entry.ARSL <= 0 {
			continue
		}
		elapsed := float64(currentYear - entry.VintageYear)
		if elapsed >= entry.ARSL {
			continue
		}
		total += entry.BaseAmount / entry.ARSL
	}
	return total
}
