package test

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const nameLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ "

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomCustomerName returns a pseudo-random tab name with length in
// [minLen, maxLen]. It never starts or ends with a space.
func RandomCustomerName(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += randomIntn(maxLen - minLen + 1)
	}
	buf := make([]byte, length)
	for i := range buf {
		letters := nameLetters
		if i == 0 || i == length-1 {
			letters = nameLetters[:len(nameLetters)-1]
		}
		buf[i] = letters[randomIntn(len(letters))]
	}
	return string(buf)
}

// RandomTerminalID returns an id shaped like the ones tills send.
func RandomTerminalID() string {
	return fmt.Sprintf("till-%d", 1+randomIntn(99))
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
