// Package sampledata synthesizes a realistic production table for demos
// and for the dashboard's "use sample data" option.
package sampledata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"kpidash/pkg/contracts/domain"
)

// Options controls the generated table. Zero values take the defaults.
type Options struct {
	Days     int       // number of consecutive days, default 60
	Machines int       // machines per shift, default 5
	End      time.Time // last day, default today
	Seed     uint64    // 0 draws a random seed
}

const (
	DefaultDays     = 60
	DefaultMachines = 5

	meanOutput   = 500
	stdOutput    = 60
	minOutput    = 50
	defectProb   = 0.02
	meanDowntime = 20
	stdDowntime  = 10
)

// Shifts are the shift labels of every generated day
var Shifts = []string{"Shift1", "Shift2", "Shift3"}

// MachineName returns the label of the i-th machine, counting from zero
func MachineName(i int) string {
	return fmt.Sprintf("Machine_%d", i+1)
}

// Generate builds days x shifts x machines records, dates ascending
func Generate(opts Options) []domain.ProductionRecord {
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.Machines <= 0 {
		opts.Machines = DefaultMachines
	}
	if opts.End.IsZero() {
		opts.End = time.Now()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	start := domain.DateOf(opts.End).AddDate(0, 0, -(opts.Days - 1))
	records := make([]domain.ProductionRecord, 0, opts.Days*len(Shifts)*opts.Machines)
	for d := 0; d < opts.Days; d++ {
		date := start.AddDate(0, 0, d)
		for _, shift := range Shifts {
			for m := 0; m < opts.Machines; m++ {
				output := max(minOutput, int(normal(rng, meanOutput, stdOutput)))
				records = append(records, domain.ProductionRecord{
					Date:            date,
					Shift:           shift,
					Machine:         MachineName(m),
					Output:          output,
					Defects:         binomial(rng, output, defectProb),
					DowntimeMinutes: int(math.Max(0, normal(rng, meanDowntime, stdDowntime))),
				})
			}
		}
	}
	return records
}

func normal(rng *rand.Rand, mean, std float64) float64 {
	return mean + std*rng.NormFloat64()
}

// binomial counts successes in n Bernoulli trials
func binomial(rng *rand.Rand, n int, p float64) int {
	k := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	return k
}
