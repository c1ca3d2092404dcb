package core

import (
	"math"
	"strings"
	"testing"
)

func TestCalculateMZ(t *testing.T) {
	tests := []struct {
		name      string
		mass      float64
		charge    int
		adduct    float64
		wantMZ    float64
		tolerance float64
	}{
		{
			name:      "protonated charge 1",
			mass:      1000.0,
			charge:    1,
			adduct:    ProtonMass,
			wantMZ:    1001.00728,
			tolerance: 1e-4,
		},
		{
			name:      "protonated charge 10",
			mass:      10000.0,
			charge:    10,
			adduct:    ProtonMass,
			wantMZ:    1001.00728,
			tolerance: 1e-4,
		},
		{
			name:      "deprotonated",
			mass:      5000.0,
			charge:    5,
			adduct:    -ProtonMass,
			wantMZ:    998.99272,
			tolerance: 1e-4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMZ(tt.mass, tt.charge, tt.adduct)
			if math.Abs(got-tt.wantMZ) > tt.tolerance {
				t.Errorf("CalculateMZ() = %.5f, want %.5f (within %g)", got, tt.wantMZ, tt.tolerance)
			}
			back := CalculateMass(got, tt.charge, tt.adduct)
			if math.Abs(back-tt.mass) > 1e-6 {
				t.Errorf("CalculateMass() = %.6f, want %.6f", back, tt.mass)
			}
		})
	}
}

func TestKendrickMass(t *testing.T) {
	number, defect := KendrickMass(1000.5, 100)
	if math.Abs(number-10.005) > 1e-12 {
		t.Errorf("Expected Kendrick number 10.005, got %v", number)
	}
	if math.Abs(defect-0.005) > 1e-9 {
		t.Errorf("Expected Kendrick defect 0.005, got %v", defect)
	}

	number, defect = KendrickMass(1000, 0)
	if number != 0 || defect != 0 {
		t.Errorf("Expected zero for non-positive reference, got %v %v", number, defect)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdductDatabase(t *testing.T) {
	db := DefaultAdductDatabase()

	mass, ok := db.GetMass("H+")
	if !ok || mass != ProtonMass {
		t.Errorf("Expected H+ = %v, got %v (ok=%v)", ProtonMass, mass, ok)
	}
	if neg, _ := db.GetMass("H-"); neg != -ProtonMass {
		t.Errorf("Expected H- = %v, got %v", -ProtonMass, neg)
	}

	csv := "name,mass\nLi+,7.015455\n\nCs+,132.904903\n"
	if err := db.LoadFromCSV(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadFromCSV() error = %v", err)
	}
	if li, ok := db.GetMass("Li+"); !ok || li != 7.015455 {
		t.Errorf("Expected Li+ from CSV, got %v (ok=%v)", li, ok)
	}

	if err := db.LoadFromCSV(strings.NewReader("name,mass\nbad,abc\n")); err == nil {
		t.Error("Expected error for invalid mass")
	}

	if got, err := db.Resolve("1.5"); err != nil || got != 1.5 {
		t.Errorf("Resolve(1.5) = %v, %v", got, err)
	}
	if _, err := db.Resolve("Unobtainium+"); err == nil {
		t.Error("Expected error for unknown adduct")
	}

	adducts := db.Adducts()
	for i := 1; i < len(adducts); i++ {
		if adducts[i].Name < adducts[i-1].Name {
			t.Fatalf("Adducts() not sorted: %v", adducts)
		}
	}
}
