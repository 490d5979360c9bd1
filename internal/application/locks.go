package application

import (
	"sync"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
)

// PhoneLocks serialises login and dispatch calls against the same account.
type PhoneLocks struct {
	mu    sync.Mutex
	locks map[domain.Phone]*sync.Mutex
}

func NewPhoneLocks() *PhoneLocks {
	return &PhoneLocks{locks: make(map[domain.Phone]*sync.Mutex)}
}

// Lock blocks until phone is free and returns the matching unlock func.
func (l *PhoneLocks) Lock(phone domain.Phone) func() {
	l.mu.Lock()
	lock, ok := l.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[phone] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
