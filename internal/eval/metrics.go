// Package eval judges evidence sets against gold titles and runs batch
// evaluations over claim datasets.
package eval

import (
	"time"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/textnorm"
)

// titleKey reduces a title to the form gold comparison happens in
func titleKey(title string) string {
	return textnorm.Normalize(model.TitleKey(title))
}

// Assess checks an evidence set against its claim's gold titles. The
// check is all-or-nothing: every gold title must appear among the first
// maxOutput evidence titles. Recall and the missing list are kept for
// diagnostics; they carry no partial credit.
func Assess(ev *model.Evidence, maxOutput int) model.Outcome {
	titles := ev.Titles()
	if maxOutput > 0 && len(titles) > maxOutput {
		titles = titles[:maxOutput]
	}

	present := make(map[string]bool, len(titles))
	for _, title := range titles {
		if key := titleKey(title); key != "" {
			present[key] = true
		}
	}

	var missing []string
	found := 0
	for _, gold := range ev.Claim.Gold {
		if present[titleKey(gold)] {
			found++
		} else {
			missing = append(missing, gold)
		}
	}

	recall := 1.0
	if len(ev.Claim.Gold) > 0 {
		recall = float64(found) / float64(len(ev.Claim.Gold))
	}

	return model.Outcome{
		Claim:   ev.Claim,
		Passed:  len(missing) == 0,
		Recall:  recall,
		Missing: missing,
		Titles:  titles,
		Hops:    ev.Hops,
		Queries: ev.Queries,
		Elapsed: ev.Elapsed,
	}
}

// Passed reports whether every gold title appears among the first
// maxOutput evidence titles
func Passed(ev *model.Evidence, maxOutput int) bool {
	return Assess(ev, maxOutput).Passed
}

// reciprocalRank returns 1/rank of the best-ranked gold title in the
// evidence list, zero when none appears
func reciprocalRank(o model.Outcome) float64 {
	gold := make(map[string]bool, len(o.Claim.Gold))
	for _, g := range o.Claim.Gold {
		if key := titleKey(g); key != "" {
			gold[key] = true
		}
	}

	for i, title := range o.Titles {
		if gold[titleKey(title)] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// Summarize aggregates per-claim outcomes into batch metrics plus a
// histogram of gold titles that were never retrieved. Errored claims
// count as failures; Errors records how many of the failures never
// completed evaluation at all.
func Summarize(outcomes []model.Outcome, elapsed time.Duration) model.Summary {
	s := model.Summary{
		Total:   len(outcomes),
		Missed:  make(map[string]int),
		Elapsed: elapsed,
	}
	if len(outcomes) == 0 {
		return s
	}

	var recallSum, rrSum float64
	for _, o := range outcomes {
		if o.Error != "" {
			s.Errors++
		}
		if o.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
		recallSum += o.Recall
		rrSum += reciprocalRank(o)
		for _, title := range o.Missing {
			s.Missed[title]++
		}
	}

	s.PassRate = float64(s.Passed) / float64(s.Total)
	s.MeanRecall = recallSum / float64(s.Total)
	s.MRR = rrSum / float64(s.Total)
	return s
}
