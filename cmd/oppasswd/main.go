// Command oppasswd prints a bcrypt hash for config/operators.yaml.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/l1jgo/antilag/internal/permission"
)

func main() {
	var raw string
	if len(os.Args) > 1 {
		raw = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "fatal: read password: %v\n", err)
			os.Exit(1)
		}
		raw = strings.TrimRight(line, "\r\n")
	}
	if raw == "" {
		fmt.Fprintln(os.Stderr, "usage: oppasswd <password>")
		os.Exit(2)
	}

	hash, err := permission.HashPassword(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
