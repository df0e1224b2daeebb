package wallet

import (
	"context"
	"fmt"

	"SolBuddy/entity"
)

// SubscriptionsWithStatus lists all alert categories annotated with the
// chat's membership.
func (s *Service) SubscriptionsWithStatus(ctx context.Context, chatID int64) ([]entity.SubscriptionStatus, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no account for chat %d", chatID)
	}

	subs, err := s.repo.GetAllSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	out := make([]entity.SubscriptionStatus, len(subs))
	for i, sub := range subs {
		out[i] = entity.SubscriptionStatus{
			Subscription: sub,
			IsSubscribed: user.IsSubscribed(sub.Name),
		}
	}
	return out, nil
}

// UserSubscriptions lists the categories the chat subscribes to.
func (s *Service) UserSubscriptions(ctx context.Context, chatID int64) ([]string, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no account for chat %d", chatID)
	}
	return user.Subscribed, nil
}

// Subscribe adds the chat to an alert category.
func (s *Service) Subscribe(ctx context.Context, chatID int64, name string) error {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no account for chat %d", chatID)
	}
	if user.IsSubscribed(name) {
		return nil
	}
	return s.repo.SetSubscriptions(ctx, chatID, append(user.Subscribed, name))
}

// Unsubscribe removes the chat from an alert category.
func (s *Service) Unsubscribe(ctx context.Context, chatID int64, name string) error {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no account for chat %d", chatID)
	}

	kept := make([]string, 0, len(user.Subscribed))
	for _, sub := range user.Subscribed {
		if sub != name {
			kept = append(kept, sub)
		}
	}
	if len(kept) == len(user.Subscribed) {
		return nil
	}
	return s.repo.SetSubscriptions(ctx, chatID, kept)
}

// Subscribers lists the chat identities subscribed to a category.
func (s *Service) Subscribers(ctx context.Context, category string) ([]int64, error) {
	return s.repo.GetSubscribers(ctx, category)
}

// ChatsByAddress lists the chat identities holding the given ledger
// address.
func (s *Service) ChatsByAddress(ctx context.Context, address string) ([]int64, error) {
	return s.repo.GetChatsByPublicKey(ctx, address)
}
