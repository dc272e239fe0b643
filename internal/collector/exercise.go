package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/scrapekit/internal/record"
	"github.com/roach88/scrapekit/internal/schema"
)

// ExerciseImageBase is the root of the free-exercise-db image tree.
const ExerciseImageBase = "https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/images/"

const (
	unspecified = "Não especificado"
	none        = "Nenhum"
)

type exerciseEntry struct {
	Name             string   `json:"name"`
	Force            *string  `json:"force"`
	Level            *string  `json:"level"`
	Equipment        *string  `json:"equipment"`
	Category         *string  `json:"category"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Instructions     []string `json:"instructions"`
	Images           []string `json:"images"`
}

// Exercise collects exercises from the free-exercise-db catalog.
// The whole catalog is one JSON document, loaded once by Prepare.
type Exercise struct {
	deps      Deps
	pacer     *pacer
	imageBase string
	catalog   []exerciseEntry
	loaded    bool
}

// NewExercise returns the free-exercise-db collector.
func NewExercise(deps Deps) *Exercise {
	if deps.Translator == nil {
		deps.Translator = Identity{}
	}
	return &Exercise{
		deps:      deps,
		pacer:     newPacer(deps.Pace),
		imageBase: ExerciseImageBase,
	}
}

func (e *Exercise) Source() Source {
	return Source{
		Name:     "ejercicios",
		Title:    "FREE EXERCISE DB",
		Prompt:   "How many exercises should be processed? ",
		MinCount: 1,
	}
}

// Prepare downloads the catalog and returns how many exercises it holds.
func (e *Exercise) Prepare(ctx context.Context) (int, error) {
	var catalog []exerciseEntry
	if err := e.deps.Client.GetJSON(ctx, e.deps.URL, nil, &catalog); err != nil {
		return 0, fmt.Errorf("load exercise catalog: %w", err)
	}
	e.catalog = catalog
	e.loaded = true
	return len(catalog), nil
}

// Fetch returns records for the first count exercises of the catalog.
// A count of zero or less returns nil without loading the catalog.
func (e *Exercise) Fetch(ctx context.Context, count int) record.Collection {
	if count <= 0 {
		return nil
	}
	if !e.loaded {
		if _, err := e.Prepare(ctx); err != nil {
			slog.Error("exercise catalog unavailable", "error", err)
			return nil
		}
	}
	if count > len(e.catalog) {
		count = len(e.catalog)
	}

	var out record.Collection
	for i, entry := range e.catalog[:count] {
		if i > 0 {
			if err := e.pacer.Wait(ctx); err != nil {
				slog.Warn("exercise collection interrupted", "error", err)
				break
			}
		}
		if entry.Name == "" {
			slog.Warn("exercise without name skipped", "index", i)
			continue
		}
		fmt.Fprintf(e.deps.progress(), "Processing exercise: %s\n", entry.Name)
		out = append(out, e.mapExercise(ctx, entry))
	}
	return validated(e.deps.Validator, schema.KindExercise, "ejercicios", out)
}

func (e *Exercise) mapExercise(ctx context.Context, entry exerciseEntry) record.Record {
	tr := e.deps.Translator
	detalhes := map[string]any{
		"Categoria":            translateText(ctx, tr, orDefault(entry.Category)),
		"Força":                translateText(ctx, tr, orDefault(entry.Force)),
		"Nível":                translateText(ctx, tr, orDefault(entry.Level)),
		"Equipamento":          translateText(ctx, tr, orDefault(entry.Equipment)),
		"Músculos Primários":   e.muscles(ctx, entry.PrimaryMuscles),
		"Músculos Secundários": e.muscles(ctx, entry.SecondaryMuscles),
	}

	passos := make([]string, len(entry.Instructions))
	for i, step := range entry.Instructions {
		passos[i] = translateText(ctx, tr, step)
	}

	var imagens any
	if len(entry.Images) > 0 {
		urls := make([]string, len(entry.Images))
		for i, img := range entry.Images {
			urls[i] = e.imageURL(entry.Name, img)
		}
		imagens = urls
	}

	return record.Record{
		"titulo":   entry.Name,
		"detalhes": detalhes,
		"passos":   passos,
		"imagens":  imagens,
	}
}

func (e *Exercise) muscles(ctx context.Context, muscles []string) string {
	if len(muscles) == 0 {
		return none
	}
	return translateText(ctx, e.deps.Translator, strings.Join(muscles, ", "))
}

// imageURL resolves an image reference. Catalog entries already carry the
// exercise directory ("Air_Bike/0.jpg"); bare file names are placed under
// the exercise name with spaces replaced by underscores.
func (e *Exercise) imageURL(name, img string) string {
	if strings.Contains(img, "/") {
		return e.imageBase + img
	}
	return e.imageBase + strings.ReplaceAll(name, " ", "_") + "/" + img
}

func orDefault(s *string) string {
	if s == nil || *s == "" {
		return unspecified
	}
	return *s
}
