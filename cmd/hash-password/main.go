package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"thirdcoast.systems/screencast/pkg/utils/passwords"
)

// Prints an argon2id hash for PRESENTER_PASSWORD_HASH. The password is read
// from the first line of stdin.
func main() {
	slog.Info("Reading presenter password from stdin")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		slog.Error("failed to read password", "error", err)
		os.Exit(1)
	}

	hash, err := passwords.NewPassword(passwords.PasswordInput{
		Password: strings.TrimRight(line, "\r\n"),
	})
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	fmt.Println(hash.String())
}
