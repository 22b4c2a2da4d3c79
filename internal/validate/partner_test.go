package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/reference"
)

type fakeRepo struct {
	partners map[string]*domain.PartnerStatus
	units    map[string]*domain.UnitStatus
	calls    int
}

func (f *fakeRepo) FindOrdersByIds(ids []string) ([]domain.Order, error) { return nil, nil }
func (f *fakeRepo) BatchFetchCustomerData(ids []string) (map[string]domain.Customer, error) {
	return nil, nil
}
func (f *fakeRepo) BatchFetchInventoryData(ids []string) (map[string]domain.Inventory, error) {
	return nil, nil
}
func (f *fakeRepo) BatchFetchPricingData(ids []string) (map[string]domain.Pricing, error) {
	return nil, nil
}
func (f *fakeRepo) FindTradingPartnerByName(name string) (*domain.PartnerStatus, error) {
	f.calls++
	return f.partners[name], nil
}
func (f *fakeRepo) FindBusinessUnitByName(name string) (*domain.UnitStatus, error) {
	f.calls++
	return f.units[name], nil
}

func newValidator(repo reference.Repository) *PartnerValidator {
	return NewPartnerValidator(
		repo,
		cache.New[domain.PartnerStatus]("partner", 100, time.Minute),
		cache.New[domain.UnitStatus]("unit", 100, time.Minute),
	)
}

func TestValidateEventPartnerInactiveUnitActiveProcesses(t *testing.T) {
	repo := &fakeRepo{
		partners: map[string]*domain.PartnerStatus{"ACME": {Name: "ACME", Status: domain.StatusInactive}},
		units:    map[string]*domain.UnitStatus{"WEST": {Name: "WEST", Status: domain.StatusActive}},
	}
	v := newValidator(repo)

	decision, err := v.ValidateEvent(domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "WEST"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Process {
		t.Fatal("expected process when only one side is inactive")
	}
}

func TestValidateEventBothInactiveSkips(t *testing.T) {
	repo := &fakeRepo{
		partners: map[string]*domain.PartnerStatus{"ACME": {Name: "ACME", Status: domain.StatusInactive}},
		units:    map[string]*domain.UnitStatus{"WEST": {Name: "WEST", Status: domain.StatusInactive}},
	}
	v := newValidator(repo)

	decision, err := v.ValidateEvent(domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "WEST"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Process {
		t.Fatal("expected skip when both partner and unit are non-active")
	}
}

func TestValidateEventMissingCountsAsNonActive(t *testing.T) {
	repo := &fakeRepo{}
	v := newValidator(repo)

	decision, err := v.ValidateEvent(domain.Event{TradingPartnerName: "GHOST", BusinessUnitName: "NOWHERE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Process {
		t.Fatal("expected skip when both partner and unit are absent")
	}
}

func TestValidateEventCachesFoundResultsNotMissing(t *testing.T) {
	repo := &fakeRepo{
		partners: map[string]*domain.PartnerStatus{"ACME": {Name: "ACME", Status: domain.StatusActive}},
	}
	v := newValidator(repo)

	if _, err := v.ValidateEvent(domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "GHOST"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterFirst := repo.calls

	if _, err := v.ValidateEvent(domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "GHOST"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the found partner should be served from cache (no extra call), but the
	// missing unit is never negatively cached, so it re-queries every time.
	if repo.calls != callsAfterFirst+1 {
		t.Fatalf("expected exactly 1 additional call (unit re-query), got %d additional", repo.calls-callsAfterFirst)
	}
}

func TestValidateEventPropagatesRepositoryError(t *testing.T) {
	repo := &erroringRepo{err: errors.New("db down")}
	v := newValidator(repo)

	_, err := v.ValidateEvent(domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "WEST"})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

type erroringRepo struct {
	err error
}

func (e *erroringRepo) FindOrdersByIds(ids []string) ([]domain.Order, error) { return nil, nil }
func (e *erroringRepo) BatchFetchCustomerData(ids []string) (map[string]domain.Customer, error) {
	return nil, nil
}
func (e *erroringRepo) BatchFetchInventoryData(ids []string) (map[string]domain.Inventory, error) {
	return nil, nil
}
func (e *erroringRepo) BatchFetchPricingData(ids []string) (map[string]domain.Pricing, error) {
	return nil, nil
}
func (e *erroringRepo) FindTradingPartnerByName(name string) (*domain.PartnerStatus, error) {
	return nil, e.err
}
func (e *erroringRepo) FindBusinessUnitByName(name string) (*domain.UnitStatus, error) {
	return nil, e.err
}
