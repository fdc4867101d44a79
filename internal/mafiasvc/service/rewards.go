package service

import (
	"context"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// winReward is the flat credit every member of the winning team receives.
var winReward = decimal.NewFromInt(100)

// RewardService writes winner credits to the balance ledger.
type RewardService struct {
	balances BalanceStore
}

func NewRewardService(balances BalanceStore) *RewardService {
	return &RewardService{balances: balances}
}

// DistributeRewards credits every winner. Per-player failures are isolated:
// one failed ledger write must not block the rest.
func (s *RewardService) DistributeRewards(ctx context.Context, gameID string, winners []*models.Player) error {
	for _, p := range winners {
		if err := s.balances.CreateReward(ctx, p.PlayerID, winReward, gameID); err != nil {
			log.Errorf("Error [RewardService.DistributeRewards] player %s: %s", p.PlayerID, err)
		}
	}
	return nil
}
