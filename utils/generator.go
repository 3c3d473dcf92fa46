package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const receiptCodeLength = 8
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const maxReceiptAttempts = 20

// GenerateUniqueReceiptNumber returns a TR-<year>-<code> number that exists
// reports as unused.
func GenerateUniqueReceiptNumber(year int, exists func(string) (bool, error)) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < maxReceiptAttempts; i++ {
		b := make([]byte, receiptCodeLength)
		for j := range b {
			b[j] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		number := fmt.Sprintf("TR-%d-%s", year, string(b))

		taken, err := exists(number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique receipt number after %d attempts", maxReceiptAttempts)
}
