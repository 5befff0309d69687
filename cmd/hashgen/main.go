// Package main generates an scrypt password hash for the ADMIN_PASSWORD_HASH
// environment variable.
//
// Usage:
//
//	hashgen <password>
package main

import (
	"fmt"
	"os"

	"github.com/visionpoint/assessment-api/internal/auth"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashgen <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
