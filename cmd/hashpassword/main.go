// Command hashpassword prints a bcrypt hash for an admin account's
// password_hash setting.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"foundation-backend/internal/security"
)

func main() {
	password := flag.String("password", "", "Password to hash (read from stdin when empty)")
	flag.Parse()

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Failed to read password: %v", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if len(pw) < 8 {
		log.Fatal("Password must be at least 8 characters")
	}

	hash, err := security.HashPassword(pw)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
