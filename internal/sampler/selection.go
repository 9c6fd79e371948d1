package sampler

import (
	"math/rand/v2"

	"promptsmith/internal/domain"
)

// wardrobeExamples is how many wardrobe phrases are shown as inspiration; the
// first one is the binding target.
const wardrobeExamples = 2

// Selection holds the phrases sampled for one bundle.
type Selection struct {
	Index int
	Items map[domain.Slot][]string
	// Bound lists the slots whose phrases the validator checks.
	Bound []domain.Slot
}

// Phrases returns the sampled phrases of a slot.
func (s Selection) Phrases(slot domain.Slot) []string {
	return s.Items[slot]
}

// Targets returns the phrases a bound slot is validated against.
func (s Selection) Targets(slot domain.Slot) []string {
	items := s.Items[slot]
	switch slot {
	case domain.SlotAccessories:
		return items
	default:
		if len(items) == 0 {
			return nil
		}
		return items[:1]
	}
}

func slotCount(slot domain.Slot, binding domain.BindingConfig) int {
	switch slot {
	case domain.SlotAccessories:
		return binding.AccessoryCount()
	case domain.SlotWardrobe:
		return wardrobeExamples
	default:
		return 1
	}
}

// SampleSelections draws one Selection per requested bundle. Bound slots must
// be satisfiable; unbound slots are sampled for inspiration when their pool
// is large enough and skipped otherwise.
func SampleSelections(bank *domain.DiversityBank, settingID string, binding domain.BindingConfig, count int, rng *rand.Rand) ([]Selection, error) {
	out := make([]Selection, 0, count)
	for i := 0; i < count; i++ {
		sel := Selection{Index: i, Items: make(map[domain.Slot][]string), Bound: binding.BoundSlots()}
		for _, slot := range domain.SlotOrder {
			pool := bank.Pool(slot.Category(), settingID)
			k := slotCount(slot, binding)
			if slot == domain.SlotWardrobe && len(pool) > 0 && len(pool) < k {
				k = len(pool)
			}
			if !binding.Bound(slot) {
				if len(pool) == 0 {
					continue
				}
				if len(pool) < k {
					k = len(pool)
				}
			}
			entries, err := Sample(pool, slot.Category(), k, rng)
			if err != nil {
				return nil, err
			}
			texts := make([]string, 0, len(entries))
			for _, e := range entries {
				texts = append(texts, e.Text)
			}
			sel.Items[slot] = texts
		}
		out = append(out, sel)
	}
	return out, nil
}
