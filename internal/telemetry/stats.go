// Package telemetry collects per-day colony statistics and writes them as
// CSV for offline analysis.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/talgya/nestshare/internal/agents"
	"github.com/talgya/nestshare/internal/colony"
	"github.com/talgya/nestshare/internal/engine"
	"github.com/talgya/nestshare/internal/foraging"
)

// DayStats is one day's colony summary, including the mating-system
// classification of every nest.
type DayStats struct {
	Day            int     `csv:"day"`
	Nests          int     `csv:"nests"`
	NestsCreated   int     `csv:"nests_created"`
	SearchAttempts int     `csv:"search_attempts"`
	Discoveries    int     `csv:"discoveries"`
	RaiseActions   int     `csv:"raise_actions"`
	Extracted      float64 `csv:"extracted"`

	UnattendedNests     int `csv:"unattended_nests"`
	MonogamousNests     int `csv:"monogamous_nests"`
	PolygynandrousNests int `csv:"polygynandrous_nests"`
	UnpairedMales       int `csv:"unpaired_males"`

	MeanMalesPerNest       float64 `csv:"mean_males_per_nest"`
	MeanShareConcentration float64 `csv:"mean_share_concentration"`
	MeanFemaleFitness      float64 `csv:"mean_female_fitness"`
	MeanMaleFitness        float64 `csv:"mean_male_fitness"`
	MeanSearchShare        float64 `csv:"mean_search_share"`
}

// NestRecord is one nest's state at the end of a day.
type NestRecord struct {
	Day               int     `csv:"day"`
	NestID            uint64  `csv:"nest_id"`
	OwnerID           uint64  `csv:"owner_id"`
	X                 int     `csv:"x"`
	Y                 int     `csv:"y"`
	ResidentMales     int     `csv:"resident_males"`
	ContributingMales int     `csv:"contributing_males"`
	TotalMaleShare    float64 `csv:"total_male_share"`
	Extracted         float64 `csv:"extracted"`
	FemaleFitness     float64 `csv:"female_fitness"`
}

// Collect summarizes the colony at the end of a day, before the field
// resets. Nests are classified by contributing males: none is unattended,
// one is monogamous, more is polygynandrous.
func Collect(st *colony.State, model *foraging.Model, res engine.DayResult) DayStats {
	stats := DayStats{
		Day:            res.Day,
		Nests:          st.NestCount(),
		NestsCreated:   res.NestsCreated,
		SearchAttempts: res.SearchAttempts,
		Discoveries:    res.Discoveries,
		RaiseActions:   res.RaiseActions,
		Extracted:      res.Extracted,
	}

	malesPerNest := make([]float64, 0, st.NestCount())
	var concentrations []float64
	for _, nest := range st.Nests() {
		switch nest.ContributingMales() {
		case 0:
			stats.UnattendedNests++
		case 1:
			stats.MonogamousNests++
		default:
			stats.PolygynandrousNests++
		}
		malesPerNest = append(malesPerNest, float64(len(nest.MaleIDs())))

		// Concentration: the largest single male's fraction of the nest's
		// total male investment. 1 for monogamous nests, lower as paternity
		// spreads.
		if total := nest.TotalMaleShare(); total > 0 {
			top := 0.0
			for _, share := range nest.MaleShares() {
				if share > top {
					top = share
				}
			}
			concentrations = append(concentrations, top/total)
		}
	}
	if len(malesPerNest) > 0 {
		stats.MeanMalesPerNest = stat.Mean(malesPerNest, nil)
	}
	if len(concentrations) > 0 {
		stats.MeanShareConcentration = stat.Mean(concentrations, nil)
	}

	var femaleFitness, maleFitness, searchShares []float64
	for _, bird := range st.Birds() {
		searchShares = append(searchShares, bird.SearchShare)

		switch bird.Kind {
		case agents.KindFemale:
			total := 0.0
			for _, nestID := range bird.OwnedNests() {
				if nest, ok := st.Nest(nestID); ok {
					total += model.FemaleFitness(st.Field(), nest)
				}
			}
			femaleFitness = append(femaleFitness, total)
		case agents.KindMale:
			if !bird.Paired() {
				stats.UnpairedMales++
			}
			total := 0.0
			for _, nestID := range bird.AssignedNests() {
				if nest, ok := st.Nest(nestID); ok {
					total += model.MaleFitness(st.Field(), nest, bird.ID)
				}
			}
			maleFitness = append(maleFitness, total)
		}
	}

	if len(femaleFitness) > 0 {
		stats.MeanFemaleFitness = stat.Mean(femaleFitness, nil)
	}
	if len(maleFitness) > 0 {
		stats.MeanMaleFitness = stat.Mean(maleFitness, nil)
	}
	if len(searchShares) > 0 {
		stats.MeanSearchShare = stat.Mean(searchShares, nil)
	}

	return stats
}

// CollectNests produces one record per nest for the day.
func CollectNests(day int, st *colony.State, model *foraging.Model) []NestRecord {
	nests := st.Nests()
	records := make([]NestRecord, 0, len(nests))

	for _, nest := range nests {
		rec := NestRecord{
			Day:               day,
			NestID:            uint64(nest.ID),
			X:                 nest.Position.X,
			Y:                 nest.Position.Y,
			ResidentMales:     len(nest.MaleIDs()),
			ContributingMales: nest.ContributingMales(),
			TotalMaleShare:    nest.TotalMaleShare(),
			Extracted:         nest.ResourceCache(),
			FemaleFitness:     model.FemaleFitness(st.Field(), nest),
		}
		if nest.Owner != nil {
			rec.OwnerID = uint64(*nest.Owner)
		}
		records = append(records, rec)
	}
	return records
}
