// Package permission loads operator accounts and answers permission checks.
package permission

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Operator is one console account.
type Operator struct {
	Name         string   `yaml:"name"`
	PasswordHash string   `yaml:"password_hash"` // bcrypt
	Permissions  []string `yaml:"permissions"`
}

// HasPermission matches node against the operator's grants. A grant may be
// the exact node, "*", or a "prefix.*" wildcard.
func (o *Operator) HasPermission(node string) bool {
	for _, g := range o.Permissions {
		if Matches(g, node) {
			return true
		}
	}
	return false
}

// Matches reports whether grant covers node.
func Matches(grant, node string) bool {
	switch {
	case grant == "*" || grant == node:
		return true
	case strings.HasSuffix(grant, ".*"):
		return strings.HasPrefix(node, strings.TrimSuffix(grant, "*"))
	}
	return false
}

type operatorsFile struct {
	Operators []Operator `yaml:"operators"`
}

// Table holds all operators indexed by lower-cased name.
type Table struct {
	ops map[string]*Operator
}

// LoadTable loads operators from a YAML file.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read operators: %w", err)
	}
	var f operatorsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse operators: %w", err)
	}
	t := &Table{ops: make(map[string]*Operator, len(f.Operators))}
	for i := range f.Operators {
		op := &f.Operators[i]
		if op.Name == "" || op.PasswordHash == "" {
			return nil, fmt.Errorf("parse operators: entry %d needs name and password_hash", i)
		}
		t.ops[strings.ToLower(op.Name)] = op
	}
	return t, nil
}

// Count returns the number of operators.
func (t *Table) Count() int { return len(t.ops) }

// Get returns the operator by name, or nil.
func (t *Table) Get(name string) *Operator {
	return t.ops[strings.ToLower(name)]
}

// Authenticate returns the operator if name exists and password matches.
func (t *Table) Authenticate(name, password string) (*Operator, bool) {
	op := t.Get(name)
	if op == nil {
		// keep timing comparable to a wrong password
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	return op, true
}

// HashPassword produces a hash suitable for password_hash.
func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z8NVxvQ8Zr6Q0wK4U9h2Gm3K")
