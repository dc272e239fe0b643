package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/scrapekit/internal/record"
	"github.com/roach88/scrapekit/internal/schema"
)

// FoodSourceTag is the value of the "fonte" field of every food record.
const FoodSourceTag = "openfoodfacts.org"

// nutrients maps output keys to Open Food Facts nutriment keys, per 100g.
// Amino acids are not published by Open Food Facts.
var nutrients = []struct {
	key string
	off string
}{
	{"proteina_100g", "proteins_100g"},
	{"carboidratos_100g", "carbohydrates_100g"},
	{"gorduras_100g", "fat_100g"},
	{"calorias_100g", "energy-kcal_100g"},
	{"acucares_100g", "sugars_100g"},
	{"fibra_100g", "fiber_100g"},
	{"amido_100g", "starch_100g"},
	{"frutose_100g", "fructose_100g"},
	{"glicose_100g", "glucose_100g"},
	{"lactose_100g", "lactose_100g"},
	{"maltose_100g", "maltose_100g"},
	{"gorduras_monoinsaturadas_100g", "monounsaturated-fat_100g"},
	{"gorduras_poliinsaturadas_100g", "polyunsaturated-fat_100g"},
	{"omega_3_100g", "omega-3-fat_100g"},
	{"omega_6_100g", "omega-6-fat_100g"},
	{"gorduras_saturadas_100g", "saturated-fat_100g"},
	{"gorduras_trans_100g", "trans-fat_100g"},
	{"colesterol_100g", "cholesterol_100g"},
	{"vitamina_b1_100g", "vitamin-b1_100g"},
	{"vitamina_b2_100g", "vitamin-b2_100g"},
	{"vitamina_b3_100g", "vitamin-b3_100g"},
	{"vitamina_b5_100g", "vitamin-b5_100g"},
	{"vitamina_b6_100g", "vitamin-b6_100g"},
	{"vitamina_b12_100g", "vitamin-b12_100g"},
	{"acido_folico_100g", "folates_100g"},
	{"vitamina_a_100g", "vitamin-a_100g"},
	{"vitamina_c_100g", "vitamin-c_100g"},
	{"vitamina_d_100g", "vitamin-d_100g"},
	{"vitamina_e_100g", "vitamin-e_100g"},
	{"vitamina_k_100g", "vitamin-k_100g"},
	{"calcio_100g", "calcium_100g"},
	{"cloro_100g", "chloride_100g"},
	{"cromo_100g", "chromium_100g"},
	{"fosforo_100g", "phosphorus_100g"},
	{"ferro_100g", "iron_100g"},
	{"magnesio_100g", "magnesium_100g"},
	{"manganes_100g", "manganese_100g"},
	{"sodio_100g", "sodium_100g"},
	{"zinco_100g", "zinc_100g"},
}

// Food collects the most scanned products sold in Spain from Open Food Facts.
type Food struct {
	deps  Deps
	pacer *pacer
}

// NewFood returns the Open Food Facts collector.
func NewFood(deps Deps) *Food {
	if deps.Translator == nil {
		deps.Translator = Identity{}
	}
	return &Food{deps: deps, pacer: newPacer(deps.Pace)}
}

func (f *Food) Source() Source {
	return Source{
		Name:     "alimentos",
		Title:    "OPEN FOOD FACTS",
		Prompt:   "Number of foods to collect (e.g. 5): ",
		MinCount: 0,
	}
}

type offSearchResponse struct {
	Products []map[string]any `json:"products"`
}

// Fetch returns up to count food records. A failed search returns nil.
func (f *Food) Fetch(ctx context.Context, count int) record.Collection {
	if count <= 0 {
		return nil
	}

	query := url.Values{
		"action":         {"process"},
		"json":           {"1"},
		"page_size":      {strconv.Itoa(count)},
		"page":           {"1"},
		"sort_by":        {"unique_scans_n"},
		"tagtype_0":      {"countries"},
		"tag_contains_0": {"contains"},
		"tag_0":          {"es"},
	}

	fmt.Fprintln(f.deps.progress(), "Collecting data from Open Food Facts...")
	var resp offSearchResponse
	if err := f.deps.Client.GetJSON(ctx, f.deps.URL, query, &resp); err != nil {
		slog.Error("open food facts search failed", "error", err)
		return nil
	}

	var out record.Collection
	for i, product := range resp.Products {
		if len(out) >= count {
			break
		}
		if i > 0 {
			if err := f.pacer.Wait(ctx); err != nil {
				slog.Warn("food collection interrupted", "error", err)
				break
			}
		}
		r, ok := f.mapProduct(ctx, product)
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return validated(f.deps.Validator, schema.KindFood, "alimentos", out)
}

func (f *Food) mapProduct(ctx context.Context, product map[string]any) (record.Record, bool) {
	name := "Desconhecido"
	if raw, present := product["product_name"]; present {
		s, _ := raw.(string)
		if s == "" {
			return nil, false
		}
		name = s
	}

	nutriments, _ := product["nutriments"].(map[string]any)
	nutricion := make(map[string]any)
	for _, n := range nutrients {
		if v, ok := nutriments[n.off]; ok && v != nil {
			nutricion[n.key] = v
		}
	}

	var ingredients []string
	if text, _ := product["ingredients_text"].(string); text != "" {
		ingredients = strings.Split(text, ", ")
	}

	var allergens []string
	if tags, ok := product["allergens_tags"].([]any); ok {
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				allergens = append(allergens, s)
			}
		}
	}

	var image any
	if s, ok := product["image_url"].(string); ok {
		image = s
	}

	return record.Record{
		"nome":         name,
		"imagem":       image,
		"ingredientes": translateList(ctx, f.deps.Translator, ingredients),
		"nutricion":    nutricion,
		"alergenos":    translateList(ctx, f.deps.Translator, allergens),
		"fonte":        FoodSourceTag,
	}, true
}
