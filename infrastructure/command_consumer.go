package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"fairbook/application"

	log "github.com/sirupsen/logrus"
)

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error

// Command subjects accepted by the service
const (
	commandStreamName = "wagering_commands"

	SubjectCreatePool        = "wagering.commands.create_pool"
	SubjectPlaceBet          = "wagering.commands.place_bet"
	SubjectClosePool         = "wagering.commands.close_pool"
	SubjectSettlePool        = "wagering.commands.settle_pool"
	SubjectCreateRewardPool  = "wagering.commands.create_reward_pool"
	SubjectAddParticipant    = "wagering.commands.add_participant"
	SubjectDistributeRewards = "wagering.commands.distribute_rewards"
	SubjectMarketEvent       = "wagering.signals.market_event"
	SubjectAccountCreated    = "wagering.signals.account_created"
)

// CommandConsumer subscribes to the command subjects and routes messages to
// the command listener
type CommandConsumer struct {
	natsClient *NATSClient
	handlers   map[string]MessageHandler
	mu         sync.RWMutex
}

// NewCommandConsumer creates a consumer with all command handlers registered
func NewCommandConsumer(natsClient *NATSClient, listener *application.CommandListener) *CommandConsumer {
	cc := &CommandConsumer{
		natsClient: natsClient,
		handlers:   make(map[string]MessageHandler),
	}

	cc.RegisterHandler(SubjectCreatePool, listener.HandleCreatePool)
	cc.RegisterHandler(SubjectPlaceBet, listener.HandlePlaceBet)
	cc.RegisterHandler(SubjectClosePool, listener.HandleClosePool)
	cc.RegisterHandler(SubjectSettlePool, listener.HandleSettlePool)
	cc.RegisterHandler(SubjectCreateRewardPool, listener.HandleCreateRewardPool)
	cc.RegisterHandler(SubjectAddParticipant, listener.HandleAddParticipant)
	cc.RegisterHandler(SubjectDistributeRewards, listener.HandleDistributeRewards)
	cc.RegisterHandler(SubjectMarketEvent, listener.HandleMarketEvent)
	cc.RegisterHandler(SubjectAccountCreated, listener.HandleAccountCreated)

	return cc
}

// RegisterHandler registers a handler for a specific subject
func (cc *CommandConsumer) RegisterHandler(subject string, handler MessageHandler) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.handlers[subject] = handler
	log.WithField("subject", subject).Info("Registered command handler")
}

// Start ensures the command stream exists and subscribes to every subject
func (cc *CommandConsumer) Start(ctx context.Context) error {
	log.Info("Starting command consumer")

	cc.mu.RLock()
	subjects := make([]string, 0, len(cc.handlers))
	for subject := range cc.handlers {
		subjects = append(subjects, subject)
	}
	cc.mu.RUnlock()

	if err := cc.natsClient.ensureStream(commandStreamName, []string{"wagering.commands.*", "wagering.signals.*"}, "Wagering command and signal messages"); err != nil {
		return fmt.Errorf("failed to ensure command stream: %w", err)
	}

	for _, subject := range subjects {
		cc.mu.RLock()
		handler := cc.handlers[subject]
		cc.mu.RUnlock()

		if err := cc.natsClient.Subscribe(subject, func(data []byte) error {
			return handler(ctx, data)
		}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	log.WithField("subjects", len(subjects)).Info("Command consumer started")
	return nil
}
