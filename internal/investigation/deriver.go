// Package investigation owns everything on the bureau side: deriving
// cases from accepted reports, the per-agent hypothesis-building session,
// and the final verification that can close a case at most once.
package investigation

import (
	"log"
	"sync"

	"cultgo/backend/internal/models"
	"cultgo/backend/internal/photo"
)

// DeriverStore is the storage surface case derivation needs.
type DeriverStore interface {
	GetReportsForVictim(victimID string) ([]models.Report, error)
	GetCaseByKey(victimID string, reportIndex int) (*models.Case, error)
	CreateCase(c *models.Case) error
	PublishUpdate(update models.GameUpdate) error
}

// CasePublisher posts derived cases to the investigation channel and
// failures to the operator chat.
type CasePublisher interface {
	PostCase(c *models.Case) error
	PostOperatorWarning(text string) error
}

// EvidenceFetcher resolves a report's photo reference to a local file the
// degradation tool can read. Reports store Telegram file IDs, which an
// external tool cannot open, so the content must land on disk first. The
// cleanup func releases the local file and may be nil.
type EvidenceFetcher interface {
	Fetch(ref string) (path string, cleanup func(), err error)
}

// Deriver creates exactly one case per accepted report. Re-running after
// a partial failure creates only the missing cases.
type Deriver struct {
	store     DeriverStore
	fetcher   EvidenceFetcher
	obscurer  photo.Obscurer
	publisher CasePublisher
	mu        sync.Mutex
}

// NewDeriver creates a case deriver.
func NewDeriver(store DeriverStore, fetcher EvidenceFetcher, obscurer photo.Obscurer, publisher CasePublisher) *Deriver {
	return &Deriver{store: store, fetcher: fetcher, obscurer: obscurer, publisher: publisher}
}

// DeriveCasesForVictim walks the victim's reports in episode order and
// creates a case for each one that has none yet. A degradation failure
// skips that report (no partial case) and is reported to the operator
// chat; derivation continues with the rest. Returns the number of cases
// created.
func (d *Deriver) DeriveCasesForVictim(victimID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reports, err := d.store.GetReportsForVictim(victimID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, report := range reports {
		existing, err := d.store.GetCaseByKey(victimID, report.ReportIndex)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		local, cleanup, err := d.fetcher.Fetch(report.PhotoRef)
		if err != nil {
			log.Printf("ERROR: Evidence fetch failed for victim %s report %d: %v",
				victimID, report.ReportIndex, err)
			d.warnOperator(victimID, report.ReportIndex)
			continue
		}
		degraded, err := d.obscurer.Obscure(local)
		if cleanup != nil {
			cleanup()
		}
		if err != nil {
			log.Printf("ERROR: Degradation failed for victim %s report %d: %v",
				victimID, report.ReportIndex, err)
			d.warnOperator(victimID, report.ReportIndex)
			continue
		}

		c := &models.Case{
			CaseCode:         CaseCode(victimID, report.ReportIndex),
			VictimID:         victimID,
			ReportIndex:      report.ReportIndex,
			VictimName:       report.VictimName,
			Ritual:           report.Ritual,
			Place:            report.Place,
			DegradedPhotoRef: degraded,
			Status:           models.CaseOpen,
		}
		if err := d.store.CreateCase(c); err != nil {
			return created, err
		}
		created++

		// The published card must never reveal weapon code, mask symbol or
		// ritual: those are exactly the facts under investigation.
		if d.publisher != nil {
			if err := d.publisher.PostCase(c); err != nil {
				log.Printf("ERROR: Case %s stored but not published: %v", c.CaseCode, err)
			}
		}
		if err := d.store.PublishUpdate(models.GameUpdate{
			Type:     models.FeedCaseOpened,
			CaseCode: c.CaseCode,
			Place:    c.Place,
		}); err != nil {
			log.Printf("WARN: Failed to publish case feed update: %v", err)
		}
	}
	return created, nil
}

// warnOperator tells the control chat a case could not be prepared; the
// report itself stays untouched for a later re-derivation.
func (d *Deriver) warnOperator(victimID string, reportIndex int) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PostOperatorWarning(
		"Evidence degradation failed for case " + CaseCode(victimID, reportIndex)); err != nil {
		log.Printf("ERROR: Operator warning not delivered: %v", err)
	}
}
