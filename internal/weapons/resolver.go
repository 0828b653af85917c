package weapons

import (
	"sync"

	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
)

// Store is the storage surface the resolver needs.
type Store interface {
	GetActiveEvent() (*models.Event, error)
	GetWeaponByName(name string) (*models.Weapon, error)
	GetReportsForVictim(victimID string) ([]models.Report, error)
	UpsertClaim(eventID string, userID int64, code string) error
}

// Resolver validates weapon claims against the active event and records
// accepted ones in the event's claim map.
type Resolver struct {
	store Store
	// mu serializes the check-then-upsert so two claims by the same user
	// cannot interleave across the storage calls.
	mu sync.Mutex
}

// NewResolver creates a claim resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// SubmitClaim validates a raw weapon code for the user and, on success,
// upserts the user's claim for the active event (a later claim replaces an
// earlier one until evidence is submitted). Returns the normalized code.
func (r *Resolver) SubmitClaim(userID int64, raw string) (string, error) {
	code, ok := ExtractCode(raw)
	if !ok {
		return "", gameerr.New(gameerr.ErrPreconditionFailed, "weapon_code_too_short")
	}
	if !IsValidCode(code) {
		return "", gameerr.New(gameerr.ErrPreconditionFailed, "weapon_code_invalid")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.store.GetActiveEvent()
	if err != nil {
		return "", err
	}
	if event == nil {
		return "", gameerr.New(gameerr.ErrPreconditionFailed, "no_active_event")
	}

	weapon, err := r.store.GetWeaponByName(event.WeaponName)
	if err != nil {
		return "", err
	}
	if weapon == nil {
		// The event references a weapon the catalog no longer has.
		return "", gameerr.New(gameerr.ErrNotFound, "weapon_not_in_catalog")
	}
	if !weapon.HasCode(code) {
		return "", gameerr.New(gameerr.ErrPreconditionFailed, "weapon_code_mismatch")
	}

	reports, err := r.store.GetReportsForVictim(event.VictimID)
	if err != nil {
		return "", err
	}
	for _, rep := range reports {
		if rep.UserID == userID {
			// A second claim after an accepted report is an error, not a
			// silent overwrite.
			return "", gameerr.New(gameerr.ErrPreconditionFailed, "already_reported")
		}
	}

	if err := r.store.UpsertClaim(event.ID, userID, code); err != nil {
		return "", err
	}
	return code, nil
}
