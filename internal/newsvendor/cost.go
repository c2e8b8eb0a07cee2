// Package newsvendor builds and solves the single-period newsvendor problem
// as a linear program over discrete demand scenarios.
package newsvendor

import (
	"fmt"
	"math"
)

// CostStructure holds the per-unit economics of one problem. The zero value
// is not valid; use NewCostStructure.
type CostStructure struct {
	price         float64
	cost          float64
	salvageValue  float64
	quantityStart float64
}

// NewCostStructure validates the inputs and returns an immutable cost
// structure. It requires 0 < salvageValue < cost < price and a finite,
// non-negative quantityStart.
func NewCostStructure(price, cost, salvageValue, quantityStart float64) (CostStructure, error) {
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"price", price},
		{"cost", cost},
		{"salvage value", salvageValue},
		{"quantity start", quantityStart},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return CostStructure{}, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidCosts, field.name, field.value)
		}
	}

	switch {
	case price <= 0 || cost <= 0 || salvageValue <= 0:
		return CostStructure{}, fmt.Errorf("%w: price, cost and salvage value must be positive (got %v, %v, %v)",
			ErrInvalidCosts, price, cost, salvageValue)
	case cost >= price:
		return CostStructure{}, fmt.Errorf("%w: cost %v must be below price %v", ErrInvalidCosts, cost, price)
	case salvageValue >= cost:
		return CostStructure{}, fmt.Errorf("%w: salvage value %v must be below cost %v", ErrInvalidCosts, salvageValue, cost)
	case quantityStart < 0:
		return CostStructure{}, fmt.Errorf("%w: quantity start must be non-negative, got %v", ErrInvalidCosts, quantityStart)
	}

	return CostStructure{
		price:         price,
		cost:          cost,
		salvageValue:  salvageValue,
		quantityStart: quantityStart,
	}, nil
}

func (c CostStructure) Price() float64         { return c.price }
func (c CostStructure) Cost() float64          { return c.cost }
func (c CostStructure) SalvageValue() float64  { return c.salvageValue }
func (c CostStructure) QuantityStart() float64 { return c.quantityStart }

// UnderageCost is the margin lost on each unit of unmet demand.
func (c CostStructure) UnderageCost() float64 { return c.price - c.cost }

// OverageCost is the loss on each unsold unit after salvage.
func (c CostStructure) OverageCost() float64 { return c.cost - c.salvageValue }

// CriticalFractile is cu/(cu+co), the demand quantile an optimal order
// quantity sits at.
func (c CostStructure) CriticalFractile() float64 {
	cu := c.UnderageCost()
	return cu / (cu + c.OverageCost())
}

func (c CostStructure) String() string {
	return fmt.Sprintf("price=%g cost=%g salvage=%g (cu=%g co=%g)",
		c.price, c.cost, c.salvageValue, c.UnderageCost(), c.OverageCost())
}
