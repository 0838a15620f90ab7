package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts placed orders by status outcome.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrdersPaidTotal counts captured payments by provider.
	OrdersPaidTotal *prometheus.CounterVec
	// PaymentChargeTotal counts payment charge attempts by provider and result.
	PaymentChargeTotal *prometheus.CounterVec
	// DiscountAppliedTotal counts discounts applied at quote time by rule name.
	DiscountAppliedTotal *prometheus.CounterVec
	// LowStockAlertsTotal counts low-stock notifications emitted.
	LowStockAlertsTotal prometheus.Counter
	// LoyaltyTierUpgrades counts shoppers promoted to a higher loyalty tier.
	LoyaltyTierUpgrades *prometheus.CounterVec
	// EventRegistrationsTotal counts community event sign-up outcomes.
	EventRegistrationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of checkout outcomes.",
		}, []string{"result"})
		OrdersPaidTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_paid_total",
			Help:      "Count of orders marked paid by payment provider.",
		}, []string{"provider"})
		PaymentChargeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_charge_total",
			Help:      "Count of payment charge attempts by outcome.",
		}, []string{"provider", "result"})
		DiscountAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_applied_total",
			Help:      "Count of discounts applied to quotes by rule.",
		}, []string{"rule"})
		LowStockAlertsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_alerts_total",
			Help:      "Number of low-stock alerts emitted by inventory adjustments.",
		})
		LoyaltyTierUpgrades = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_tier_upgrades_total",
			Help:      "Count of loyalty tier promotions by resulting tier.",
		}, []string{"tier"})
		EventRegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_registrations_total",
			Help:      "Count of community event registration outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersPaidTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPaidTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentChargeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentChargeTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, LowStockAlertsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LowStockAlertsTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyTierUpgrades, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LoyaltyTierUpgrades = v
			}
		})
		mustRegisterCollector(reg, EventRegistrationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EventRegistrationsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
