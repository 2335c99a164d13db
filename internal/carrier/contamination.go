package carrier

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// CheckTransfer decides whether moving a line between two carriers stays
// inside one parent operator. Unknown carriers on either side fail with
// ErrUnknownCarrier rather than passing as clean, so configuration
// mistakes cannot mask a contaminated transfer.
func (r *Registry) CheckTransfer(from, to model.CarrierID) (model.ContaminationResult, error) {
	fromGroup, err := r.GroupOf(from)
	if err != nil {
		return model.ContaminationResult{}, eris.Wrap(err, "check transfer: from")
	}
	toGroup, err := r.GroupOf(to)
	if err != nil {
		return model.ContaminationResult{}, eris.Wrap(err, "check transfer: to")
	}

	if fromGroup.ID != toGroup.ID || fromGroup.Exempt {
		return model.ContaminationResult{}, nil
	}

	return model.ContaminationResult{
		Contaminated: true,
		GroupID:      fromGroup.ID,
		Reason: fmt.Sprintf(
			"transfer within the %s group (%s) risks short-term cancellation penalties and incentive ineligibility",
			strings.ToUpper(fromGroup.ID), fromGroup.DisplayName,
		),
	}, nil
}

// FirstClean returns the first candidate, in the given order, whose
// transfer from the source carrier is not contaminated. When candidates
// is nil the registry's canonical order is used, which makes reselection
// after a carrier-context change deterministic.
func (r *Registry) FirstClean(from model.CarrierID, candidates []model.CarrierID) (model.CarrierID, error) {
	if candidates == nil {
		for _, rule := range r.Canonical() {
			candidates = append(candidates, rule.ID)
		}
	}

	for _, c := range candidates {
		res, err := r.CheckTransfer(from, c)
		if err != nil {
			return "", eris.Wrap(err, "first clean")
		}
		if !res.Contaminated {
			return c, nil
		}
	}
	return "", eris.Wrapf(model.ErrNotFound, "no clean destination from %q", from)
}
