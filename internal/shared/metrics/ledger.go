package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ledger agrupa os contadores de negócio; métodos aceitam receiver nil (testes sem métricas)
type Ledger struct {
	betsPlaced           prometheus.Counter
	betsRejected         *prometheus.CounterVec
	deposits             prometheus.Counter
	withdrawalsRequested prometheus.Counter
	withdrawalsDecided   *prometheus.CounterVec
	betsSettled          *prometheus.CounterVec
	settlementErrors     *prometheus.CounterVec
	publishErrors        *prometheus.CounterVec
}

// NewLedger cria e registra os coletores no registerer informado
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		betsPlaced:           prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_bets_placed_total", Help: "apostas aceitas"}),
		betsRejected:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_bets_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"}),
		deposits:             prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_deposits_total", Help: "depósitos creditados"}),
		withdrawalsRequested: prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_withdrawals_requested_total", Help: "saques solicitados"}),
		withdrawalsDecided:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_withdrawals_adjudicated_total", Help: "saques ajustados pelo admin"}, []string{"status"}),
		betsSettled:          prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_bets_settled_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"}),
		settlementErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_settlement_errors_total", Help: "erros da liquidação por estágio"}, []string{"stage"}),
		publishErrors:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_publish_errors_total", Help: "falhas ao publicar eventos"}, []string{"topic"}),
	}
	reg.MustRegister(m.betsPlaced, m.betsRejected, m.deposits, m.withdrawalsRequested,
		m.withdrawalsDecided, m.betsSettled, m.settlementErrors, m.publishErrors)
	return m
}

func (m *Ledger) BetPlaced() {
	if m != nil {
		m.betsPlaced.Inc()
	}
}

func (m *Ledger) BetRejected(reason string) {
	if m != nil {
		m.betsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Ledger) Deposit() {
	if m != nil {
		m.deposits.Inc()
	}
}

func (m *Ledger) WithdrawalRequested() {
	if m != nil {
		m.withdrawalsRequested.Inc()
	}
}

func (m *Ledger) WithdrawalAdjudicated(status string) {
	if m != nil {
		m.withdrawalsDecided.WithLabelValues(status).Inc()
	}
}

func (m *Ledger) BetSettled(outcome string) {
	if m != nil {
		m.betsSettled.WithLabelValues(outcome).Inc()
	}
}

func (m *Ledger) SettlementError(stage string) {
	if m != nil {
		m.settlementErrors.WithLabelValues(stage).Inc()
	}
}

func (m *Ledger) PublishError(topic string) {
	if m != nil {
		m.publishErrors.WithLabelValues(topic).Inc()
	}
}
