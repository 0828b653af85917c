// Package ritual generates the single active event: a never-reused victim
// plus a randomized ritual, weapon and place.
package ritual

import (
	"log"
	"math/rand/v2"
	"sync"

	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
)

// Store is the storage surface the generator needs.
type Store interface {
	ListVictims() ([]models.Victim, error)
	ListRituals() ([]string, error)
	ListPlaces() ([]string, error)
	ListWeapons() ([]models.Weapon, error)
	ListUsedVictimIDs() ([]string, error)
	GetActiveEvent() (*models.Event, error)
	ReplaceEvent(event *models.Event) error
}

// CaseDeriver turns the previous event's accepted reports into open cases
// before the event is replaced.
type CaseDeriver interface {
	DeriveCasesForVictim(victimID string) (int, error)
}

// Generator produces events. A mutex serializes generation so the admin
// command and the auto cycle cannot interleave their victim draws.
type Generator struct {
	store   Store
	deriver CaseDeriver
	rng     *rand.Rand
	mu      sync.Mutex
}

// NewGenerator creates an event generator. deriver may be nil (no case
// derivation on rotation, used by the admin CLI).
func NewGenerator(store Store, deriver CaseDeriver) *Generator {
	return &Generator{
		store:   store,
		deriver: deriver,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Generate draws a fresh victim and installs the new event, retiring the
// previous one. The victim is marked used in the same transaction that
// replaces the event, so a failure while announcing afterwards is a lost
// event, never a repeated victim. Returns ErrVictimsExhausted when the
// victim catalog is spent.
func (g *Generator) Generate() (*models.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	victims, err := g.store.ListVictims()
	if err != nil {
		return nil, err
	}
	usedIDs, err := g.store.ListUsedVictimIDs()
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = true
	}
	var available []models.Victim
	for _, v := range victims {
		if !used[v.ID] {
			available = append(available, v)
		}
	}
	if len(available) == 0 {
		return nil, gameerr.New(gameerr.ErrVictimsExhausted, "victims_exhausted")
	}

	rituals, err := g.store.ListRituals()
	if err != nil {
		return nil, err
	}
	places, err := g.store.ListPlaces()
	if err != nil {
		return nil, err
	}
	weapons, err := g.store.ListWeapons()
	if err != nil {
		return nil, err
	}
	if len(rituals) == 0 || len(places) == 0 || len(weapons) == 0 {
		return nil, gameerr.New(gameerr.ErrNotFound, "catalogs_empty")
	}

	// Close the books on the previous victim before it disappears from the
	// active slot. A derivation failure is reported, not fatal: missing
	// cases are recreated on the next derivation run.
	if g.deriver != nil {
		if prev, err := g.store.GetActiveEvent(); err == nil && prev != nil {
			if created, err := g.deriver.DeriveCasesForVictim(prev.VictimID); err != nil {
				log.Printf("ERROR: Case derivation for victim %s failed: %v", prev.VictimID, err)
			} else if created > 0 {
				log.Printf("Derived %d case(s) for victim %s", created, prev.VictimID)
			}
		}
	}

	victim := available[g.rng.IntN(len(available))]
	event := &models.Event{
		VictimID:          victim.ID,
		VictimName:        victim.Name,
		VictimDescription: victim.Description,
		VictimPhotoRef:    victim.PhotoRef,
		Ritual:            rituals[g.rng.IntN(len(rituals))],
		WeaponName:        weapons[g.rng.IntN(len(weapons))].Name,
		Place:             places[g.rng.IntN(len(places))],
	}
	if err := g.store.ReplaceEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}
