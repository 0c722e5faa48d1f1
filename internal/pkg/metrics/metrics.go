// Package metrics concentra os coletores Prometheus do serviço.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beautypro"

// Resultados possíveis de uma verificação de duplicidade.
const (
	ResultExists = "exists"
	ResultAbsent = "absent"
	ResultError  = "error"
)

// Metrics agrupa os coletores usados pelos serviços e pelo middleware HTTP.
type Metrics struct {
	DuplicateChecks *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// New cria os coletores e registra no Registerer informado
// (prometheus.DefaultRegisterer quando nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		DuplicateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_checks_total",
			Help:      "Verificações de duplicidade por papel, tipo de identificador e resultado.",
		}, []string{"role", "kind", "result"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registros de conta criados por papel.",
		}, []string{"role"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requisições HTTP por método, rota e status.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latência das requisições HTTP em segundos.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requisições HTTP em andamento.",
		}),
	}

	var err error
	if m.DuplicateChecks, err = register(reg, m.DuplicateChecks); err != nil {
		return nil, err
	}
	if m.Registrations, err = register(reg, m.Registrations); err != nil {
		return nil, err
	}
	if m.Requests, err = register(reg, m.Requests); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}
	if m.InFlight, err = register(reg, m.InFlight); err != nil {
		return nil, err
	}
	return m, nil
}

// register reaproveita o coletor já registrado com o mesmo nome (e.g., em testes).
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, fmt.Errorf("falha ao registrar coletor: %w", err)
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("coletor existente tem tipo inesperado %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// ObserveDuplicateCheck conta uma verificação. Seguro com receptor nil.
func (m *Metrics) ObserveDuplicateCheck(role, kind, result string) {
	if m == nil {
		return
	}
	m.DuplicateChecks.WithLabelValues(role, kind, result).Inc()
}

// ObserveRegistration conta um registro de conta criado.
func (m *Metrics) ObserveRegistration(role string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(role).Inc()
}
