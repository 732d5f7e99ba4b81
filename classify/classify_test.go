package classify

import "testing"

func TestBrand(t *testing.T) {
	brands := []string{"prusa", "creality", "bambu"}

	tests := []struct {
		name     string
		product  string
		expected string
	}{
		{
			name:     "exact containment",
			product:  "Filamento PLA Prusa 1kg",
			expected: "Prusa",
		},
		{
			name:     "case insensitive",
			product:  "FILAMENTO CREALITY NEGRO",
			expected: "Creality",
		},
		{
			name:     "first rule wins on double match",
			product:  "Boquilla Creality para Prusa",
			expected: "Prusa",
		},
		{
			name:     "no match falls back",
			product:  "Filamento generico 1kg",
			expected: Fallback,
		},
		{
			name:     "empty name falls back",
			product:  "",
			expected: Fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Brand(tt.product, brands); got != tt.expected {
				t.Errorf("Brand(%q) = %q, want %q", tt.product, got, tt.expected)
			}
		})
	}
}

func TestBrandEmptyRuleList(t *testing.T) {
	if got := Brand("Filamento Prusa", nil); got != Fallback {
		t.Fatalf("Brand with no rules = %q, want %q", got, Fallback)
	}
}

func TestCategory(t *testing.T) {
	categories := []string{"resina", "filamento", "boquilla", "impresion"}

	tests := []struct {
		name     string
		product  string
		expected string
	}{
		{
			name:     "plain match",
			product:  "Boquilla 0.4mm laton",
			expected: "Boquilla",
		},
		{
			name:     "rule order decides ties",
			product:  "Filamento de Resina Especial",
			expected: "Resina",
		},
		{
			name:     "accented name matches plain rule",
			product:  "Servicio de Impresión 3D",
			expected: "Impresion",
		},
		{
			name:     "filament subtype composite",
			product:  "PLA+ Filamento Rojo",
			expected: "Filamento PLA+",
		},
		{
			name:     "subtype priority prefers PLA+ over PLA",
			product:  "Filamento PLA+ (mejor que PLA)",
			expected: "Filamento PLA+",
		},
		{
			name:     "plain PLA subtype",
			product:  "Filamento PLA Blanco 1kg",
			expected: "Filamento PLA",
		},
		{
			name:     "petg subtype",
			product:  "Filamento PETG transparente",
			expected: "Filamento PETG",
		},
		{
			name:     "filament without subtype stays bare",
			product:  "Filamento de madera",
			expected: "Filamento",
		},
		{
			name:     "no match falls back",
			product:  "Cama caliente 235mm",
			expected: Fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Category(tt.product, categories); got != tt.expected {
				t.Errorf("Category(%q) = %q, want %q", tt.product, got, tt.expected)
			}
		})
	}
}

func TestCategoryAccentedRule(t *testing.T) {
	// Folding applies to both sides: an accented rule still matches a plain
	// spelling in the product name.
	categories := []string{"impresión"}
	if got := Category("servicio de impresion", categories); got != "Impresión" {
		t.Fatalf("Category = %q, want %q", got, "Impresión")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	rules := Rules{
		Brands:     []string{"prusa"},
		Categories: []string{"filamento"},
	}

	first := rules.Classify("Filamento PLA+ Prusa")
	for i := 0; i < 100; i++ {
		got := rules.Classify("Filamento PLA+ Prusa")
		if got != first {
			t.Fatalf("classification not deterministic: %v vs %v", got, first)
		}
	}
	if first.Brand != "Prusa" || first.Category != "Filamento PLA+" {
		t.Fatalf("unexpected labels: %+v", first)
	}
}
