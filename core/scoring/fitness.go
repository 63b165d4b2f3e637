package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// FitnessScorer checks department fitness certificates. A train without a
// currently valid certificate from every department cannot enter service.
type FitnessScorer struct{}

func (FitnessScorer) Domain() string { return "fitness" }

func (FitnessScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "fitness", Score: rules.CertScoreValid, Status: "valid"}

	minValidity := rules.CertMinValidityDays
	if in.Mode.IsEmergency() {
		minValidity = rules.CertMinValidityDaysEmergency
	}

	minDays := 1 << 30
	for _, dept := range model.Departments {
		cert := certFor(snap.Certificates, dept)
		if cert == nil {
			// Missing data is treated as the worst case: no clearance.
			res.Score = rules.CertScoreExpired
			res.Status = "missing"
			res.Blocking = true
			res.DataIncomplete = true
			res.Reasons = append(res.Reasons, fmt.Sprintf("no %s certificate on record", dept))
			continue
		}
		if !cert.ValidAt(in.Now) {
			res.Score = rules.CertScoreExpired
			res.Status = "invalid"
			res.Blocking = true
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s certificate %s", dept, cert.Status))
			continue
		}
		if d := cert.DaysUntilExpiry(in.Now); d < minDays {
			minDays = d
		}
	}
	if res.Blocking {
		return res
	}

	switch {
	case minDays < minValidity:
		res.Score = rules.CertScoreExpired
		res.Status = "invalid"
		res.Blocking = true
		res.Reasons = append(res.Reasons, fmt.Sprintf("certificate expires in %dd, below the %dd minimum", minDays, minValidity))
	case minDays < rules.CertExpiringSoonMinDays:
		res.Score = rules.CertScoreCritical
		res.Status = "expiring_critical"
		res.Reasons = append(res.Reasons, fmt.Sprintf("certificate expires in %dd", minDays))
	case minDays <= rules.CertExpiringSoonMaxDays:
		res.Score = rules.CertScoreExpiring
		res.Status = "expiring_soon"
		res.Reasons = append(res.Reasons, fmt.Sprintf("certificate expires in %dd", minDays))
	}
	return res
}

func certFor(certs []model.FitnessCertificate, dept model.Department) *model.FitnessCertificate {
	var best *model.FitnessCertificate
	for i := range certs {
		c := &certs[i]
		if c.Department != dept {
			continue
		}
		if best == nil || c.ValidTo.After(best.ValidTo) {
			best = c
		}
	}
	return best
}
