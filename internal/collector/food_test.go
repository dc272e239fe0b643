package collector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scrapekit/internal/record"
)

const offResponse = `{
  "count": 3,
  "products": [
    {
      "product_name": "Galletas María",
      "image_url": "https://images.openfoodfacts.org/galletas.jpg",
      "ingredients_text": "wheat flour, sugar, sunflower oil",
      "allergens_tags": ["en:gluten"],
      "nutriments": {
        "energy-kcal_100g": 436,
        "proteins_100g": 7.1,
        "sugars_100g": 21,
        "sodium_100g": null,
        "unrelated_100g": 1
      }
    },
    {
      "product_name": "",
      "nutriments": {"energy-kcal_100g": 1}
    },
    {
      "nutriments": {}
    }
  ]
}`

func TestFoodFetch(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_, _ = io.WriteString(w, offResponse)
	}))
	defer srv.Close()

	var progress bytes.Buffer
	tr := &upperTranslator{}
	f := NewFood(Deps{
		Client:     testClient(1),
		Translator: tr,
		Validator:  testValidator(t),
		URL:        srv.URL,
		Progress:   &progress,
	})

	got := f.Fetch(context.Background(), 5)

	assert.Equal(t, "5", query.Get("page_size"))
	assert.Equal(t, "unique_scans_n", query.Get("sort_by"))
	assert.Equal(t, "countries", query.Get("tagtype_0"))
	assert.Equal(t, "es", query.Get("tag_0"))
	assert.Equal(t, "1", query.Get("json"))
	assert.Contains(t, progress.String(), "Open Food Facts")

	require.Len(t, got, 2)
	assert.Equal(t, record.Record{
		"nome":         "Galletas María",
		"imagem":       "https://images.openfoodfacts.org/galletas.jpg",
		"ingredientes": []string{"WHEAT FLOUR", "SUGAR", "SUNFLOWER OIL"},
		"nutricion": map[string]any{
			"calorias_100g": 436.0,
			"proteina_100g": 7.1,
			"acucares_100g": 21.0,
		},
		"alergenos": []string{"EN:GLUTEN"},
		"fonte":     FoodSourceTag,
	}, got[0])

	// A product without a name field is kept under a placeholder name;
	// an empty name is skipped.
	assert.Equal(t, "Desconhecido", got[1]["nome"])
	assert.Nil(t, got[1]["imagem"])
	assert.Equal(t, []string{}, got[1]["ingredientes"])
	assert.Equal(t, map[string]any{}, got[1]["nutricion"])
}

func TestFoodFetchLimitsToCount(t *testing.T) {
	srv := serveString(t, "application/json", offResponse)
	f := NewFood(Deps{Client: testClient(1), URL: srv.URL})

	got := f.Fetch(context.Background(), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Galletas María", got[0]["nome"])
	// No translator configured: text passes through.
	assert.Equal(t, []string{"wheat flour", "sugar", "sunflower oil"}, got[0]["ingredientes"])
}

func TestFoodFetchZeroCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	f := NewFood(Deps{Client: testClient(1), URL: srv.URL})
	assert.Empty(t, f.Fetch(context.Background(), 0))
}

func TestFoodFetchRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFood(Deps{Client: testClient(2), URL: srv.URL})
	assert.Empty(t, f.Fetch(context.Background(), 3))
}

func TestFoodSource(t *testing.T) {
	src := NewFood(Deps{}).Source()
	assert.Equal(t, "alimentos", src.Name)
	assert.Equal(t, 0, src.MinCount)
}
