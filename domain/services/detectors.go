package services

import (
	"fmt"
	"math"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"
)

// historySnapshot is the immutable view a detector evaluates against. It is
// assembled once per Evaluate call so detectors can run concurrently without
// touching shared state.
type historySnapshot struct {
	candidate *entities.BetRecord
	userBets  []*entities.BetRecord // candidate user's bets in the history window, oldest first
	poolBets  []*entities.BetRecord // all users' bets on the candidate pool, oldest first
	accounts  map[string]accountInfo
	events    []*entities.MarketEvent
	now       time.Time
}

type accountInfo struct {
	wallet    string
	createdAt time.Time
}

// detector inspects one snapshot and either raises an alert or returns nil.
// Detectors are pure functions over the snapshot.
type detector interface {
	Name() entities.AlertType
	Detect(snap *historySnapshot) *entities.Alert
}

// defaultMonitoringRules builds one enabled rule per detector from the
// configured thresholds and windows
func defaultMonitoringRules(cfg *config.Config) []entities.MonitoringRule {
	return []entities.MonitoringRule{
		{ID: "rule-rapid-betting", Type: entities.AlertTypeRapidBetting, Threshold: float64(cfg.RapidBetThreshold), TimeWindow: cfg.RapidBetWindow, Severity: entities.AlertSeverityMedium, Action: entities.AlertActionRateLimit, Enabled: true},
		{ID: "rule-coordinated-betting", Type: entities.AlertTypeCoordinatedBetting, Threshold: cfg.CoordinationThreshold, TimeWindow: cfg.CoordinationWindow, Severity: entities.AlertSeverityHigh, Action: entities.AlertActionRestrict, Enabled: true},
		{ID: "rule-wash-trading", Type: entities.AlertTypeWashTrading, Threshold: cfg.WashTradeThreshold, Severity: entities.AlertSeverityCritical, Action: entities.AlertActionSuspend, Enabled: true},
		{ID: "rule-insider-trading", Type: entities.AlertTypeInsiderTrading, Threshold: cfg.InsiderThreshold, TimeWindow: cfg.InsiderEventWindow, Severity: entities.AlertSeverityHigh, Action: entities.AlertActionRestrict, Enabled: true},
		{ID: "rule-account-farming", Type: entities.AlertTypeAccountFarming, Threshold: cfg.FarmingThreshold, TimeWindow: cfg.FarmingMinAccountAge, Severity: entities.AlertSeverityHigh, Action: entities.AlertActionRestrict, Enabled: true},
		{ID: "rule-bot-activity", Type: entities.AlertTypeBotActivity, Threshold: cfg.BotScoreThreshold, Severity: entities.AlertSeverityMedium, Action: entities.AlertActionRateLimit, Enabled: true},
	}
}

// newDetectors builds one detector per enabled rule. The rule carries each
// detector's primary threshold, window and alert severity; secondary knobs
// stay on config.
func newDetectors(cfg *config.Config, rules []entities.MonitoringRule) []detector {
	var detectors []detector
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		switch rule.Type {
		case entities.AlertTypeRapidBetting:
			detectors = append(detectors, &rapidBettingDetector{threshold: int(rule.Threshold), window: rule.TimeWindow, severity: rule.Severity})
		case entities.AlertTypeCoordinatedBetting:
			detectors = append(detectors, &coordinationDetector{minWallets: cfg.CoordinationMinWallets, window: rule.TimeWindow, threshold: rule.Threshold, severity: rule.Severity})
		case entities.AlertTypeWashTrading:
			detectors = append(detectors, &washTradingDetector{threshold: rule.Threshold, severity: rule.Severity})
		case entities.AlertTypeInsiderTrading:
			detectors = append(detectors, &insiderTradingDetector{threshold: rule.Threshold, eventWindow: rule.TimeWindow, severity: rule.Severity})
		case entities.AlertTypeAccountFarming:
			detectors = append(detectors, &accountFarmingDetector{minAccountAge: rule.TimeWindow, minSimilar: cfg.FarmingMinSimilar, threshold: rule.Threshold, severity: rule.Severity})
		case entities.AlertTypeBotActivity:
			detectors = append(detectors, &botActivityDetector{cvThreshold: cfg.BotCVThreshold, scoreThreshold: rule.Threshold, severity: rule.Severity})
		}
	}
	return detectors
}

func newAlert(snap *historySnapshot, alertType entities.AlertType, severity entities.AlertSeverity, title, description string, evidence map[string]any) *entities.Alert {
	return &entities.Alert{
		UserID:      snap.candidate.UserID,
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Description: description,
		Evidence:    evidence,
		Timestamp:   snap.now,
	}
}

// rapidBettingDetector flags a burst of bets inside a short trailing window.
// The candidate bet itself counts toward the burst.
type rapidBettingDetector struct {
	threshold int
	window    time.Duration
	severity  entities.AlertSeverity
}

func (d *rapidBettingDetector) Name() entities.AlertType { return entities.AlertTypeRapidBetting }

func (d *rapidBettingDetector) Detect(snap *historySnapshot) *entities.Alert {
	cutoff := snap.now.Add(-d.window)
	count := 1
	for _, bet := range snap.userBets {
		if bet.Timestamp.After(cutoff) {
			count++
		}
	}
	if count < d.threshold {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Rapid betting burst",
		fmt.Sprintf("%d bets within %s", count, d.window),
		map[string]any{"count": count, "windowSeconds": d.window.Seconds()})
}

// coordinationDetector scores how strongly distinct wallets cluster on the
// candidate's outcome. The score combines stake-amount similarity with
// temporal clustering.
type coordinationDetector struct {
	minWallets int
	window     time.Duration
	threshold  float64
	severity   entities.AlertSeverity
}

func (d *coordinationDetector) Name() entities.AlertType {
	return entities.AlertTypeCoordinatedBetting
}

func (d *coordinationDetector) Detect(snap *historySnapshot) *entities.Alert {
	cutoff := snap.now.Add(-d.window)

	wallets := make(map[string]bool)
	var amounts []float64
	var times []time.Time
	for _, bet := range snap.poolBets {
		if bet.OutcomeID != snap.candidate.OutcomeID || !bet.Timestamp.After(cutoff) {
			continue
		}
		wallets[bet.Wallet] = true
		amount, _ := bet.Amount.Float64()
		amounts = append(amounts, amount)
		times = append(times, bet.Timestamp)
	}
	wallets[snap.candidate.Wallet] = true
	candidateAmount, _ := snap.candidate.Amount.Float64()
	amounts = append(amounts, candidateAmount)
	times = append(times, snap.now)

	if len(wallets) < d.minWallets {
		return nil
	}

	// Identical stakes from many wallets in a tight burst score highest
	amountSimilarity := 1 - math.Min(1, coefficientOfVariation(amounts))
	spread := times[len(times)-1].Sub(times[0])
	temporalClustering := 1 - math.Min(1, spread.Seconds()/d.window.Seconds())
	score := 0.6*amountSimilarity + 0.4*temporalClustering

	if score <= d.threshold {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Coordinated betting pattern",
		fmt.Sprintf("%d wallets backing outcome %s with similarity %.2f", len(wallets), snap.candidate.OutcomeID, score),
		map[string]any{"wallets": len(wallets), "score": score, "outcomeId": snap.candidate.OutcomeID})
}

// washTradingDetector flags a user holding near-equal opposing stakes in the
// same pool. Confidence is the smaller side divided by the larger side.
type washTradingDetector struct {
	threshold float64
	severity  entities.AlertSeverity
}

func (d *washTradingDetector) Name() entities.AlertType { return entities.AlertTypeWashTrading }

func (d *washTradingDetector) Detect(snap *historySnapshot) *entities.Alert {
	sameSide, _ := snap.candidate.Amount.Float64()
	opposing := 0.0
	for _, bet := range snap.userBets {
		if bet.PoolID != snap.candidate.PoolID {
			continue
		}
		amount, _ := bet.Amount.Float64()
		if bet.OutcomeID == snap.candidate.OutcomeID {
			sameSide += amount
		} else {
			opposing += amount
		}
	}
	if opposing == 0 || sameSide == 0 {
		return nil
	}

	confidence := math.Min(sameSide, opposing) / math.Max(sameSide, opposing)
	if confidence <= d.threshold {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Opposing stakes in one pool",
		fmt.Sprintf("stakes %.2f vs %.2f on pool %s, confidence %.2f", sameSide, opposing, snap.candidate.PoolID, confidence),
		map[string]any{"sameSide": sameSide, "opposing": opposing, "confidence": confidence, "poolId": snap.candidate.PoolID})
}

// insiderTradingDetector correlates the user's bet timing with market events.
// Suspicion is the fraction of recent bets landing just before an event,
// scaled up when the candidate stake dwarfs the user's usual size.
type insiderTradingDetector struct {
	threshold   float64
	eventWindow time.Duration
	severity    entities.AlertSeverity
}

func (d *insiderTradingDetector) Name() entities.AlertType {
	return entities.AlertTypeInsiderTrading
}

func (d *insiderTradingDetector) Detect(snap *historySnapshot) *entities.Alert {
	if len(snap.events) == 0 || len(snap.userBets) == 0 {
		return nil
	}

	hits := 0
	meanAmount := 0.0
	for _, bet := range snap.userBets {
		amount, _ := bet.Amount.Float64()
		meanAmount += amount
		for _, event := range snap.events {
			lead := event.Timestamp.Sub(bet.Timestamp)
			if event.PoolID == bet.PoolID && lead > 0 && lead <= d.eventWindow {
				hits++
				break
			}
		}
	}
	meanAmount /= float64(len(snap.userBets))

	suspicion := float64(hits) / float64(len(snap.userBets))
	candidateAmount, _ := snap.candidate.Amount.Float64()
	if meanAmount > 0 && candidateAmount > 2*meanAmount {
		suspicion = math.Min(1, suspicion*1.25)
	}
	if suspicion <= d.threshold {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Bet timing correlates with market events",
		fmt.Sprintf("%d of %d recent bets placed within %s before an event", hits, len(snap.userBets), d.eventWindow),
		map[string]any{"hits": hits, "total": len(snap.userBets), "suspicion": suspicion})
}

// accountFarmingDetector flags a young account moving in lockstep with other
// young accounts on the same pools with near-identical stakes.
type accountFarmingDetector struct {
	minAccountAge time.Duration
	minSimilar    int
	threshold     float64
	severity      entities.AlertSeverity
}

func (d *accountFarmingDetector) Name() entities.AlertType {
	return entities.AlertTypeAccountFarming
}

func (d *accountFarmingDetector) Detect(snap *historySnapshot) *entities.Alert {
	account, ok := snap.accounts[snap.candidate.UserID]
	if !ok || snap.now.Sub(account.createdAt) >= d.minAccountAge {
		return nil
	}

	candidateAmount, _ := snap.candidate.Amount.Float64()
	similar := 0
	for _, bet := range snap.poolBets {
		if bet.UserID == snap.candidate.UserID {
			continue
		}
		other, ok := snap.accounts[bet.UserID]
		if !ok || snap.now.Sub(other.createdAt) >= d.minAccountAge {
			continue
		}
		amount, _ := bet.Amount.Float64()
		if relativeSimilarity(candidateAmount, amount) >= d.threshold {
			similar++
		}
	}
	if similar < d.minSimilar {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Cluster of similar young accounts",
		fmt.Sprintf("%d young accounts placed near-identical bets on pool %s", similar+1, snap.candidate.PoolID),
		map[string]any{"similarAccounts": similar, "accountAgeHours": snap.now.Sub(account.createdAt).Hours()})
}

// botActivityDetector scores machine-like behavior from timing regularity
// and repeated exact stake amounts. A coefficient of variation below the
// human floor combined with a repeated-amount pattern trips the alert.
type botActivityDetector struct {
	cvThreshold    float64
	scoreThreshold float64
	severity       entities.AlertSeverity
}

func (d *botActivityDetector) Name() entities.AlertType { return entities.AlertTypeBotActivity }

func (d *botActivityDetector) Detect(snap *historySnapshot) *entities.Alert {
	bets := append(append([]*entities.BetRecord{}, snap.userBets...), snap.candidate)
	if len(bets) < 5 {
		return nil
	}

	intervals := make([]float64, 0, len(bets)-1)
	for i := 1; i < len(bets); i++ {
		intervals = append(intervals, bets[i].Timestamp.Sub(bets[i-1].Timestamp).Seconds())
	}
	cv := coefficientOfVariation(intervals)

	timingScore := 0.0
	if cv < d.cvThreshold {
		timingScore = 1 - cv/d.cvThreshold
	}

	amountCounts := make(map[string]int)
	mostCommon := 0
	for _, bet := range bets {
		key := bet.Amount.String()
		amountCounts[key]++
		if amountCounts[key] > mostCommon {
			mostCommon = amountCounts[key]
		}
	}
	patternScore := float64(mostCommon) / float64(len(bets))

	score := 0.6*timingScore + 0.4*patternScore
	if score <= d.scoreThreshold {
		return nil
	}

	return newAlert(snap, d.Name(), d.severity,
		"Machine-like betting cadence",
		fmt.Sprintf("interval CV %.3f, repeated-amount ratio %.2f over %d bets", cv, patternScore, len(bets)),
		map[string]any{"cv": cv, "patternScore": patternScore, "score": score})
}

// coefficientOfVariation returns stddev/mean, or 0 when undefined
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}

// relativeSimilarity returns 1 for identical values, falling toward 0 as
// they diverge
func relativeSimilarity(a, b float64) float64 {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return 1
	}
	return 1 - math.Abs(a-b)/larger
}
