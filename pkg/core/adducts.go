// Package core provides the adduct table used to convert neutral masses to m/z
package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Adduct is a charge-carrying species attached once per charge.
type Adduct struct {
	Name string
	Mass float64 // mass added per charge, negative for loss
}

// AdductDatabase stores adduct definitions by name
type AdductDatabase struct {
	adducts map[string]float64 // name -> mass per charge
}

// NewAdductDatabase creates an empty adduct database
func NewAdductDatabase() *AdductDatabase {
	return &AdductDatabase{
		adducts: make(map[string]float64),
	}
}

// LoadFromCSV loads adducts from a CSV file (format: name,mass)
func (db *AdductDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.adducts[name] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the per-charge mass for an adduct name
func (db *AdductDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.adducts[name]
	return mass, ok
}

// Add adds or updates an adduct
func (db *AdductDatabase) Add(name string, mass float64) {
	db.adducts[name] = mass
}

// Adducts returns all adducts sorted by name
func (db *AdductDatabase) Adducts() []Adduct {
	out := make([]Adduct, 0, len(db.adducts))
	for name, mass := range db.adducts {
		out = append(out, Adduct{Name: name, Mass: mass})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Resolve parses either an adduct name or a literal mass
func (db *AdductDatabase) Resolve(nameOrMass string) (float64, error) {
	nameOrMass = strings.TrimSpace(nameOrMass)
	if mass, err := strconv.ParseFloat(nameOrMass, 64); err == nil {
		return mass, nil
	}
	mass, ok := db.GetMass(nameOrMass)
	if !ok {
		return 0, fmt.Errorf("unknown adduct '%s'", nameOrMass)
	}
	return mass, nil
}

// defaultAdducts lists the common ionizing species and their small multiples.
var defaultAdducts = []Adduct{
	{Name: "H+", Mass: ProtonMass},
	{Name: "2H+", Mass: 2 * ProtonMass},
	{Name: "3H+", Mass: 3 * ProtonMass},
	{Name: "Na+", Mass: MassNa - ElectronMass},
	{Name: "2Na+", Mass: 2 * (MassNa - ElectronMass)},
	{Name: "K+", Mass: MassK - ElectronMass},
	{Name: "2K+", Mass: 2 * (MassK - ElectronMass)},
	{Name: "NH4+", Mass: MassNH4},
	{Name: "H-", Mass: -ProtonMass},
	{Name: "2H-", Mass: -2 * ProtonMass},
	{Name: "Cl-", Mass: MassCl + ElectronMass},
	{Name: "e-", Mass: ElectronMass},
}

// DefaultAdductDatabase returns an AdductDatabase pre-loaded with common adducts
func DefaultAdductDatabase() *AdductDatabase {
	db := NewAdductDatabase()
	for _, a := range defaultAdducts {
		db.Add(a.Name, a.Mass)
	}
	return db
}
