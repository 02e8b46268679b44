package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
	"fairbook/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type monitorService struct {
	config    *config.Config
	rules     map[entities.AlertType]entities.MonitoringRule
	detectors []detector
	alertRepo interfaces.AlertRepository
	notifier  interfaces.AlertNotifier
	publisher interfaces.EventPublisher

	mu           sync.RWMutex
	userBets     map[string][]*entities.BetRecord // user ID -> bets, oldest first
	poolBets     map[string][]*entities.BetRecord // pool ID -> bets, oldest first
	accounts     map[string]accountInfo
	marketEvents []*entities.MarketEvent
	cooldowns    map[string]time.Time // cooldown key -> last accepted alert
	suspended    map[string]bool
	restricted   map[string]bool
}

// NewAntiManipulationMonitor creates the monitor with the default rule per
// detector, thresholds taken from config
func NewAntiManipulationMonitor(
	alertRepo interfaces.AlertRepository,
	notifier interfaces.AlertNotifier,
	publisher interfaces.EventPublisher,
) interfaces.AntiManipulationMonitor {
	return NewAntiManipulationMonitorWithRules(defaultMonitoringRules(config.Get()), alertRepo, notifier, publisher)
}

// NewAntiManipulationMonitorWithRules creates the monitor from an explicit
// rule set. Disabled rules get no detector; each rule's severity and action
// govern the alerts its detector raises. Rules are read-only after this.
func NewAntiManipulationMonitorWithRules(
	rules []entities.MonitoringRule,
	alertRepo interfaces.AlertRepository,
	notifier interfaces.AlertNotifier,
	publisher interfaces.EventPublisher,
) interfaces.AntiManipulationMonitor {
	cfg := config.Get()
	byType := make(map[entities.AlertType]entities.MonitoringRule, len(rules))
	for _, rule := range rules {
		byType[rule.Type] = rule
	}
	return &monitorService{
		config:     cfg,
		rules:      byType,
		detectors:  newDetectors(cfg, rules),
		alertRepo:  alertRepo,
		notifier:   notifier,
		publisher:  publisher,
		userBets:   make(map[string][]*entities.BetRecord),
		poolBets:   make(map[string][]*entities.BetRecord),
		accounts:   make(map[string]accountInfo),
		cooldowns:  make(map[string]time.Time),
		suspended:  make(map[string]bool),
		restricted: make(map[string]bool),
	}
}

func (m *monitorService) Evaluate(ctx context.Context, userID string, bet *entities.BetRecord) (*entities.EvaluationResult, error) {
	if m.IsSuspended(userID) {
		return &entities.EvaluationResult{Allowed: false, RiskScore: 1}, nil
	}

	snap := m.snapshot(userID, bet)

	// Fan out the detectors, fan in their alerts
	alertCh := make(chan *entities.Alert, len(m.detectors))
	var wg sync.WaitGroup
	for _, d := range m.detectors {
		wg.Add(1)
		go func(d detector) {
			defer wg.Done()
			if alert := d.Detect(snap); alert != nil {
				alertCh <- alert
			}
		}(d)
	}
	wg.Wait()
	close(alertCh)

	var raised []*entities.Alert
	for alert := range alertCh {
		raised = append(raised, alert)
	}
	// Channel order is nondeterministic; keep output stable
	sort.Slice(raised, func(i, j int) bool { return raised[i].Type < raised[j].Type })

	accepted := m.acceptAlerts(ctx, raised, snap.now)

	result := &entities.EvaluationResult{Alerts: accepted}
	for _, alert := range accepted {
		result.RiskScore += alert.Severity.Weight()
	}
	if len(accepted) > 0 {
		result.RiskScore /= float64(len(accepted))
	}

	result.Allowed = !m.IsSuspended(userID)
	for _, alert := range accepted {
		if alert.Severity == entities.AlertSeverityCritical {
			result.Allowed = false
		}
	}
	return result, nil
}

// acceptAlerts applies cooldown suppression, persists, notifies and takes
// the automatic action for each surviving alert.
func (m *monitorService) acceptAlerts(ctx context.Context, raised []*entities.Alert, now time.Time) []*entities.Alert {
	var accepted []*entities.Alert
	for _, alert := range raised {
		key := alert.CooldownKey()

		m.mu.Lock()
		if last, ok := m.cooldowns[key]; ok && now.Sub(last) < m.config.AlertCooldown {
			m.mu.Unlock()
			continue
		}
		m.cooldowns[key] = now
		m.mu.Unlock()

		alert.ID = uuid.New().String()
		alert.ActionTaken = m.actionFor(alert)
		m.applyAction(alert)
		accepted = append(accepted, alert)

		if err := m.alertRepo.Append(ctx, alert); err != nil {
			log.WithError(err).WithField("alertId", alert.ID).Error("Failed to persist alert")
		}
		if alert.Severity == entities.AlertSeverityHigh || alert.Severity == entities.AlertSeverityCritical {
			if err := m.notifier.Notify(ctx, alert); err != nil {
				log.WithError(err).WithField("alertId", alert.ID).Warn("Failed to deliver alert notification")
			}
		}
		if err := m.publisher.Publish(events.AlertCreatedEvent{
			AlertID:   alert.ID,
			UserID:    alert.UserID,
			AlertType: string(alert.Type),
			Severity:  string(alert.Severity),
			Timestamp: alert.Timestamp,
		}); err != nil {
			log.WithError(err).Warn("Failed to publish alert created event")
		}

		log.WithFields(log.Fields{
			"alertId":  alert.ID,
			"userId":   alert.UserID,
			"type":     alert.Type,
			"severity": alert.Severity,
			"action":   alert.ActionTaken,
		}).Warn("Suspicious activity alert")
	}
	return accepted
}

// actionFor picks the raising rule's configured action, falling back to the
// severity default for rules that leave it unset
func (m *monitorService) actionFor(alert *entities.Alert) entities.AlertAction {
	if rule, ok := m.rules[alert.Type]; ok && rule.Action != "" {
		return rule.Action
	}
	return actionForSeverity(alert.Severity)
}

func actionForSeverity(severity entities.AlertSeverity) entities.AlertAction {
	switch severity {
	case entities.AlertSeverityCritical:
		return entities.AlertActionSuspend
	case entities.AlertSeverityHigh:
		return entities.AlertActionRestrict
	case entities.AlertSeverityMedium:
		return entities.AlertActionRateLimit
	default:
		return entities.AlertActionMonitor
	}
}

func (m *monitorService) applyAction(alert *entities.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch alert.ActionTaken {
	case entities.AlertActionSuspend:
		m.suspended[alert.UserID] = true
	case entities.AlertActionRestrict:
		m.restricted[alert.UserID] = true
	}
}

func (m *monitorService) RecordBet(ctx context.Context, bet *entities.BetRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.config.HistoryWindow)
	m.userBets[bet.UserID] = pruneBets(append(m.userBets[bet.UserID], bet), cutoff)
	m.poolBets[bet.PoolID] = pruneBets(append(m.poolBets[bet.PoolID], bet), cutoff)
}

func (m *monitorService) RecordAccountCreated(userID, wallet string, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[userID] = accountInfo{wallet: wallet, createdAt: createdAt}
}

func (m *monitorService) RecordMarketEvent(event *entities.MarketEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.config.HistoryWindow)
	kept := m.marketEvents[:0]
	for _, e := range m.marketEvents {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	m.marketEvents = append(kept, event)
}

func (m *monitorService) IsSuspended(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.suspended[userID]
}

// snapshot copies the state a detector run needs so detectors never race
// with RecordBet.
func (m *monitorService) snapshot(userID string, bet *entities.BetRecord) *historySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make(map[string]accountInfo, len(m.accounts))
	for id, info := range m.accounts {
		accounts[id] = info
	}

	return &historySnapshot{
		candidate: bet,
		userBets:  append([]*entities.BetRecord{}, m.userBets[userID]...),
		poolBets:  append([]*entities.BetRecord{}, m.poolBets[bet.PoolID]...),
		accounts:  accounts,
		events:    append([]*entities.MarketEvent{}, m.marketEvents...),
		now:       time.Now(),
	}
}

func pruneBets(bets []*entities.BetRecord, cutoff time.Time) []*entities.BetRecord {
	kept := bets[:0]
	for _, bet := range bets {
		if bet.Timestamp.After(cutoff) {
			kept = append(kept, bet)
		}
	}
	return kept
}
