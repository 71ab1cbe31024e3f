package activity

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Resolution is the duplicate-resolution plan for a record set. The resolver
// itself has no side effects: applying the plan is the reconciler's job.
type Resolution struct {
	Survivors  []Record
	Eliminated []Eliminated
	IDRepairs  []IDRepair
	Warnings   []string
}

var wellFormedIDRe = regexp.MustCompile(`^\d+$`)

// DuplicateResolver groups records into duplicate equivalence classes and
// picks one survivor per class under a deterministic tie-break policy:
// a well-formed preexisting id beats none, the smallest numeric id beats a
// larger one, the longest description breaks remaining ties.
type DuplicateResolver struct {
	idWidth int
}

func NewDuplicateResolver(policy *Policy) *DuplicateResolver {
	return &DuplicateResolver{idWidth: policy.IDWidth}
}

const (
	reasonExactDuplicate = "exact duplicate: identical title, category, location and time"
	reasonTitleMerge     = "same title with colliding or missing id"
)

func (r *DuplicateResolver) Run(records []Record) Resolution {
	resolution := Resolution{}

	classes, warnings := r.buildClasses(records)
	resolution.Warnings = warnings

	// Pick survivors; everything else in a class is eliminated.
	eliminatedOf := make(map[int]elimination, len(records))
	for _, class := range classes {
		survivor := pickSurvivor(records, class.members)
		for _, idx := range class.members {
			if idx == survivor {
				continue
			}
			eliminatedOf[idx] = elimination{survivor: survivor, reason: class.reason}
		}
	}

	survivorIdx := make([]int, 0, len(records))
	for i := range records {
		if _, gone := eliminatedOf[i]; !gone {
			survivorIdx = append(survivorIdx, i)
		}
	}

	survivors, repairs, idWarnings := r.assignIDs(records, survivorIdx)
	resolution.Survivors = survivors
	resolution.IDRepairs = repairs
	resolution.Warnings = append(resolution.Warnings, idWarnings...)

	// Final ids are known now; point each eliminated record at its survivor.
	finalID := make(map[int]string, len(survivorIdx))
	for pos, idx := range survivorIdx {
		finalID[idx] = survivors[pos].ActivityNumber
	}
	for i := range records {
		e, gone := eliminatedOf[i]
		if !gone {
			continue
		}
		resolution.Eliminated = append(resolution.Eliminated, Eliminated{
			Record:     records[i].Clone(),
			SurvivorID: finalID[e.survivor],
			Reason:     e.reason,
		})
	}

	return resolution
}

type elimination struct {
	survivor int
	reason   string
}

type duplicateClass struct {
	members []int
	reason  string
}

// buildClasses groups record indexes into duplicate equivalence classes:
// first by strict key, then remaining singletons by loose key when their ids
// collide or are absent. Loose-key collisions across distinct ids are
// ambiguous and only warned about.
func (r *DuplicateResolver) buildClasses(records []Record) ([]duplicateClass, []string) {
	var classes []duplicateClass
	var warnings []string

	strictGroups := make(map[string][]int)
	var strictOrder []string
	for i, record := range records {
		key := StrictKey(record)
		if _, seen := strictGroups[key]; !seen {
			strictOrder = append(strictOrder, key)
		}
		strictGroups[key] = append(strictGroups[key], i)
	}

	looseGroups := make(map[string][]int)
	var looseOrder []string
	for _, key := range strictOrder {
		members := strictGroups[key]
		if len(members) > 1 {
			classes = append(classes, duplicateClass{members: members, reason: reasonExactDuplicate})
			continue
		}
		idx := members[0]
		loose := LooseKey(records[idx])
		if loose == "" {
			continue
		}
		if _, seen := looseGroups[loose]; !seen {
			looseOrder = append(looseOrder, loose)
		}
		looseGroups[loose] = append(looseGroups[loose], idx)
	}

	for _, loose := range looseOrder {
		members := looseGroups[loose]
		if len(members) < 2 {
			continue
		}

		distinct := distinctNumericIDs(records, members)
		if len(distinct) <= 1 {
			classes = append(classes, duplicateClass{members: members, reason: reasonTitleMerge})
			continue
		}

		// Same title, conflicting ids: auto-merging could discard a
		// legitimately distinct activity, so both survive, flagged.
		warnings = append(warnings, fmt.Sprintf(
			"ambiguous duplicate: title %q appears under distinct ids %v; left unresolved",
			records[members[0]].Title, distinct))

		// Records sharing the same numeric id within the group are still
		// confirmed duplicates of each other.
		byID := make(map[int][]int)
		var idOrder []int
		for _, idx := range members {
			n, ok := numericID(records[idx])
			if !ok {
				continue
			}
			if _, seen := byID[n]; !seen {
				idOrder = append(idOrder, n)
			}
			byID[n] = append(byID[n], idx)
		}
		for _, n := range idOrder {
			if len(byID[n]) > 1 {
				classes = append(classes, duplicateClass{members: byID[n], reason: reasonTitleMerge})
			}
		}
	}

	return classes, warnings
}

// pickSurvivor applies the tie-break policy to a duplicate class and returns
// the index of the record to keep.
func pickSurvivor(records []Record, members []int) int {
	best := members[0]
	for _, idx := range members[1:] {
		if survivorLess(records[idx], records[best]) {
			best = idx
		}
	}
	return best
}

// survivorLess reports whether a should survive over b.
func survivorLess(a, b Record) bool {
	aID, aOk := numericID(a)
	bID, bOk := numericID(b)
	if aOk != bOk {
		return aOk
	}
	if aOk && aID != bID {
		return aID < bID
	}
	return len(a.Description) > len(b.Description)
}

// assignIDs repairs identifiers across the surviving set: numeric-id
// collisions between distinct records lose to the earlier holder, and every
// record without a well-formed id gets a fresh number, zero-padded. Gaps
// between the smallest and largest existing ids are refilled first; once none
// remain the sequence extends past its maximum.
func (r *DuplicateResolver) assignIDs(records []Record, survivorIdx []int) ([]Record, []IDRepair, []string) {
	survivors := make([]Record, 0, len(survivorIdx))
	var repairs []IDRepair
	var warnings []string

	used := make(map[int]bool)
	var needsID []int // positions in survivors
	for _, idx := range survivorIdx {
		record := records[idx].Clone()
		pos := len(survivors)
		survivors = append(survivors, record)

		n, ok := numericID(record)
		if !ok {
			needsID = append(needsID, pos)
			continue
		}
		if used[n] {
			warnings = append(warnings, fmt.Sprintf(
				"id collision: %q and an earlier record both carried id %s; reassigning",
				record.Title, record.ActivityNumber))
			needsID = append(needsID, pos)
			continue
		}
		used[n] = true
	}

	minUsed, maxUsed := 0, 0
	for n := range used {
		if minUsed == 0 || n < minUsed {
			minUsed = n
		}
		if n > maxUsed {
			maxUsed = n
		}
	}

	next := minUsed + 1
	for _, pos := range needsID {
		for next <= maxUsed && used[next] {
			next++
		}
		n := next
		if n > maxUsed {
			// No gap left to refill, extend the sequence.
			maxUsed++
			n = maxUsed
		}
		used[n] = true
		id := r.formatID(n)
		survivors[pos].ActivityNumber = id
		repairs = append(repairs, IDRepair{Title: survivors[pos].Title, AssignedID: id})
	}

	sort.SliceStable(repairs, func(i, j int) bool {
		return repairs[i].AssignedID < repairs[j].AssignedID
	})

	return survivors, repairs, warnings
}

func (r *DuplicateResolver) formatID(n int) string {
	return fmt.Sprintf("%0*d", r.idWidth, n)
}

func numericID(record Record) (int, bool) {
	if !wellFormedIDRe.MatchString(record.ActivityNumber) {
		return 0, false
	}
	n, err := strconv.Atoi(record.ActivityNumber)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func distinctNumericIDs(records []Record, members []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, idx := range members {
		n, ok := numericID(records[idx])
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
