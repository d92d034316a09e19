package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerialisesPerKeyAndForgetsIdleKeys(t *testing.T) {
	var km keyedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("a:b")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, km.size())
}

func TestKeyedMutexKeysAreIndependent(t *testing.T) {
	var km keyedMutex
	unlockA := km.Lock("a")
	// a different key must not block while "a" is held
	unlockB := km.Lock("b")
	assert.Equal(t, 2, km.size())
	unlockB()
	unlockA()
	assert.Equal(t, 0, km.size())
}
