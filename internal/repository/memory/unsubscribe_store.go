package memory

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// UnsubscribeStore is the ephemeral opt-out list. Like every memory
// backend it forgets everything on restart.
type UnsubscribeStore struct {
	addresses *cache.Cache
}

func NewUnsubscribeStore() *UnsubscribeStore {
	return &UnsubscribeStore{
		addresses: cache.New(cache.NoExpiration, 0),
	}
}

func (s *UnsubscribeStore) Unsubscribe(_ context.Context, address string) error {
	s.addresses.Set(address, struct{}{}, cache.NoExpiration)
	return nil
}

func (s *UnsubscribeStore) Resubscribe(_ context.Context, address string) error {
	s.addresses.Delete(address)
	return nil
}

func (s *UnsubscribeStore) IsUnsubscribed(_ context.Context, address string) (bool, error) {
	_, found := s.addresses.Get(address)
	return found, nil
}
