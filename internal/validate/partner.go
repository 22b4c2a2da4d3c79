// Package validate implements cache-aside partner/unit lookup and the
// skip-iff-both-inactive decision rule.
package validate

import (
	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/reference"
)

// Decision is the outcome of validating an event.
type Decision struct {
	Process bool
	Reason  string // populated iff !Process
}

var processDecision = Decision{Process: true}

// PartnerValidator looks up partner/unit status through bounded TTL caches,
// falling back to the repository on miss. Missing results are never
// negatively cached, so a store outage doesn't wrongly skip every
// subsequent event for the same scope once the store recovers.
type PartnerValidator struct {
	repo         reference.Repository
	partnerCache *cache.TTLCache[domain.PartnerStatus]
	unitCache    *cache.TTLCache[domain.UnitStatus]
}

func NewPartnerValidator(repo reference.Repository, partnerCache *cache.TTLCache[domain.PartnerStatus], unitCache *cache.TTLCache[domain.UnitStatus]) *PartnerValidator {
	return &PartnerValidator{repo: repo, partnerCache: partnerCache, unitCache: unitCache}
}

// ValidateEvent implements validateEvent(event) → {process | skip(reason)}.
func (v *PartnerValidator) ValidateEvent(event domain.Event) (Decision, error) {
	partner, err := v.lookupPartner(event.TradingPartnerName)
	if err != nil {
		return Decision{}, err
	}
	unit, err := v.lookupUnit(event.BusinessUnitName)
	if err != nil {
		return Decision{}, err
	}

	if !partner.IsActive() && !unit.IsActive() {
		return Decision{Process: false, Reason: "partner and unit both non-active"}, nil
	}
	return processDecision, nil
}

func (v *PartnerValidator) lookupPartner(name string) (*domain.PartnerStatus, error) {
	if cached, ok := v.partnerCache.Get(name); ok {
		return &cached, nil
	}
	p, err := v.repo.FindTradingPartnerByName(name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		v.partnerCache.Put(name, *p)
	}
	return p, nil
}

func (v *PartnerValidator) lookupUnit(name string) (*domain.UnitStatus, error) {
	if cached, ok := v.unitCache.Get(name); ok {
		return &cached, nil
	}
	u, err := v.repo.FindBusinessUnitByName(name)
	if err != nil {
		return nil, err
	}
	if u != nil {
		v.unitCache.Put(name, *u)
	}
	return u, nil
}
