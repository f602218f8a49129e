package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const SecretKeyBytesLen = 32

// Print fresh access and refresh token secrets in '.env' format
func main() {
	for _, key := range []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		secret, err := newSecret()
		if err != nil {
			fmt.Printf("error while generating secret key: %v", err)
			os.Exit(1)
		}
		fmt.Printf("%s=%s\n", key, secret)
	}
}

func newSecret() (string, error) {
	b := make([]byte, SecretKeyBytesLen)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
