// Package keylock даёт мьютекс на ключ: операции с одним ключом идут
// последовательно, с разными не мешают друг другу.
package keylock

import "sync"

type Mutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *Mutex {
	return &Mutex{locks: make(map[string]*entry)}
}

// Lock захватывает ключ и возвращает функцию освобождения.
func (k *Mutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len возвращает число ключей, которые сейчас удерживаются или ожидаются.
func (k *Mutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
