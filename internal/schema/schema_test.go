package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrapekit/internal/record"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func food() record.Record {
	return record.Record{
		"nome":         "Manzana",
		"imagem":       nil,
		"ingredientes": []string{"manzana"},
		"nutricion":    map[string]any{"calorias_100g": 52.0, "fibra_100g": 2.4},
		"alergenos":    []string{},
		"fonte":        "openfoodfacts.org",
	}
}

func TestValidateFood(t *testing.T) {
	v := newValidator(t)
	require.NoError(t, v.Validate(KindFood, food()))

	withImage := food()
	withImage["imagem"] = "https://images.openfoodfacts.org/manzana.jpg"
	assert.NoError(t, v.Validate(KindFood, withImage))
}

func TestValidateFoodRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(record.Record)
	}{
		{"empty name", func(r record.Record) { r["nome"] = "" }},
		{"missing source", func(r record.Record) { delete(r, "fonte") }},
		{"unknown field", func(r record.Record) { r["precio"] = 1.5 }},
		{"nutrient without unit suffix", func(r record.Record) {
			r["nutricion"] = map[string]any{"calorias": 52.0}
		}},
		{"null nutrient", func(r record.Record) {
			r["nutricion"] = map[string]any{"calorias_100g": nil}
		}},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := food()
			tt.mutate(r)
			assert.Error(t, v.Validate(KindFood, r))
		})
	}
}

func TestValidateExercise(t *testing.T) {
	v := newValidator(t)
	r := record.Record{
		"titulo":   "Push-up",
		"detalhes": map[string]any{"Categoria": "fuerza", "Músculos Primários": "pecho"},
		"passos":   []string{"Baje el cuerpo", "Empuje hacia arriba"},
		"imagens":  nil,
	}
	require.NoError(t, v.Validate(KindExercise, r))

	r["imagens"] = []string{"https://example.org/0.jpg"}
	require.NoError(t, v.Validate(KindExercise, r))

	r["detalhes"] = map[string]any{"Nível": 3.0}
	assert.Error(t, v.Validate(KindExercise, r))
}

func TestValidateRecipe(t *testing.T) {
	v := newValidator(t)
	r := record.Record{
		"titulo":       "Tortilla de patatas",
		"imagem":       "https://example.org/tortilla.jpg",
		"ingredientes": []string{"4 huevos", "3 patatas"},
		"nutricion":    map[string]any{"Calorías": "180 kcal"},
		"passos":       []string{"Pelar las patatas."},
	}
	require.NoError(t, v.Validate(KindRecipe, r))

	delete(r, "titulo")
	assert.Error(t, v.Validate(KindRecipe, r))
}

func TestValidateUnknownKind(t *testing.T) {
	v := newValidator(t)
	err := v.Validate(Kind("#Nope"), record.Record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}

func TestFilterKeepsOrder(t *testing.T) {
	v := newValidator(t)

	bad := food()
	bad["nome"] = ""
	second := food()
	second["nome"] = "Pera"

	kept, errs := v.Filter(KindFood, record.Collection{food(), bad, second})
	require.Len(t, kept, 2)
	assert.Equal(t, "Manzana", kept[0]["nome"])
	assert.Equal(t, "Pera", kept[1]["nome"])
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "record 1")
}
