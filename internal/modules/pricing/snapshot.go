// README: Read-only pricing snapshot with tier-resolution lookups.
package pricing

import (
	"strings"

	"charter/internal/types"
)

// Snapshot is an immutable view of every pricing table the engine consults.
// It is loaded once and passed around by pointer; lookups never mutate it.
type Snapshot struct {
	CustomerRates   []CustomerRate
	Matrix          []MatrixRate
	Ancillaries     []AncillaryService
	ContractorRates map[types.ID][]ContractorRate
}

// CustomerServicePrice resolves the customer-specific override tier. The
// boolean distinguishes "no entry" from a configured zero price.
func (s *Snapshot) CustomerServicePrice(customerID types.ID, serviceName string, vehicleTypeID types.ID) (types.Money, bool) {
	if customerID == "" || serviceName == "" {
		return 0, false
	}
	for _, r := range s.CustomerRates {
		if r.CustomerID == customerID &&
			strings.EqualFold(r.ServiceName, serviceName) &&
			(r.VehicleTypeID == "" || r.VehicleTypeID == vehicleTypeID) {
			return r.Price, true
		}
	}
	return 0, false
}

// MatrixPrice resolves the default matrix tier keyed by service and vehicle type.
func (s *Snapshot) MatrixPrice(serviceID, vehicleTypeID types.ID) (types.Money, bool) {
	if serviceID == "" || vehicleTypeID == "" {
		return 0, false
	}
	for _, r := range s.Matrix {
		if r.ServiceID == serviceID && r.VehicleTypeID == vehicleTypeID {
			return r.Price, true
		}
	}
	return 0, false
}

// FindAncillary returns the first ancillary service carrying the given
// condition kind.
func (s *Snapshot) FindAncillary(kind ConditionKind) (AncillaryService, bool) {
	for _, a := range s.Ancillaries {
		if a.Condition.Kind == kind {
			return a, true
		}
	}
	return AncillaryService{}, false
}

// AncillaryMagnitude resolves the surcharge magnitude for an ancillary
// service: the customer override (keyed by the ancillary's name) wins, then
// the default matrix keyed by the ancillary's id and the vehicle type. Zero
// means no pricing was found at either tier.
func (s *Snapshot) AncillaryMagnitude(anc AncillaryService, customerID, vehicleTypeID types.ID) types.Money {
	if p, ok := s.CustomerServicePrice(customerID, anc.Name, vehicleTypeID); ok {
		return p
	}
	if p, ok := s.MatrixPrice(anc.ID, vehicleTypeID); ok {
		return p
	}
	return 0
}

// ContractorCost resolves the contractor matrix entry for a fully specified
// (contractor, service, vehicle type) triple.
func (s *Snapshot) ContractorCost(contractorID, serviceID, vehicleTypeID types.ID) (types.Money, bool) {
	rates, ok := s.ContractorRates[contractorID]
	if !ok {
		return 0, false
	}
	for _, r := range rates {
		if r.ServiceID == serviceID && r.VehicleTypeID == vehicleTypeID {
			return r.Cost, true
		}
	}
	return 0, false
}
