package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/roach88/scrapekit/internal/record"
	"github.com/roach88/scrapekit/internal/schema"
)

// ErrNoRecipeTitle is returned for pages without an h1.titulo heading.
var ErrNoRecipeTitle = errors.New("recipe page has no title")

// Recipe collects recipes linked from the recetasgratis.net home page.
// Recipe text is already Spanish and is not translated.
type Recipe struct {
	deps  Deps
	pacer *pacer
}

// NewRecipe returns the recetasgratis.net collector.
func NewRecipe(deps Deps) *Recipe {
	return &Recipe{deps: deps, pacer: newPacer(deps.Pace)}
}

func (r *Recipe) Source() Source {
	return Source{
		Name:     "recetas",
		Title:    "RECETAS GRATIS",
		Prompt:   "Number of recipes to collect (e.g. 5): ",
		MinCount: 1,
	}
}

// Fetch returns up to count recipe records. Pages that fail to load or
// parse are skipped.
func (r *Recipe) Fetch(ctx context.Context, count int) record.Collection {
	if count <= 0 {
		return nil
	}
	links, err := r.links(ctx, count)
	if err != nil {
		slog.Error("recipe index unavailable", "url", r.deps.URL, "error", err)
		return nil
	}
	if len(links) == 0 {
		fmt.Fprintln(r.deps.progress(), "No recipe links found.")
		return nil
	}

	var out record.Collection
	for i, link := range links {
		if i > 0 {
			if err := r.pacer.Wait(ctx); err != nil {
				slog.Warn("recipe collection interrupted", "error", err)
				break
			}
		}
		fmt.Fprintf(r.deps.progress(), "Collecting data from: %s\n", link)
		rec, err := r.scrape(ctx, link)
		if err != nil {
			slog.Warn("recipe skipped", "url", link, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return validated(r.deps.Validator, schema.KindRecipe, "recetas", out)
}

// links returns up to limit recipe URLs from the index page, resolved
// against the index URL.
func (r *Recipe) links(ctx context.Context, limit int) ([]string, error) {
	base, err := url.Parse(r.deps.URL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	doc, err := r.deps.Client.GetHTML(ctx, r.deps.URL)
	if err != nil {
		return nil, err
	}

	var links []string
	for _, a := range findAll(doc, element("a", "titulo titulo--bloque")) {
		if len(links) >= limit {
			break
		}
		href := attr(a, "href")
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			slog.Warn("bad recipe link", "href", href, "error", err)
			continue
		}
		links = append(links, base.ResolveReference(ref).String())
	}
	return links, nil
}

func (r *Recipe) scrape(ctx context.Context, link string) (record.Record, error) {
	doc, err := r.deps.Client.GetHTML(ctx, link)
	if err != nil {
		return nil, err
	}
	return parseRecipe(doc)
}

func parseRecipe(doc *html.Node) (record.Record, error) {
	h1 := findFirst(doc, element("h1", "titulo"))
	if h1 == nil {
		return nil, ErrNoRecipeTitle
	}
	titulo := text(h1)
	if titulo == "" {
		return nil, ErrNoRecipeTitle
	}

	var imagem any
	if img := findFirst(doc, element("img", "imagen")); img != nil && hasAttr(img, "src") {
		imagem = attr(img, "src")
	}

	ingredientes := []string{}
	if section := findFirst(doc, element("div", "ingredientes")); section != nil {
		for _, li := range findAll(section, element("li", "ingrediente")) {
			label := findFirst(li, element("label", ""))
			if label == nil {
				continue
			}
			if s := text(label); s != "" {
				ingredientes = append(ingredientes, s)
			}
		}
	}

	passos := []string{}
	for _, sec := range findAll(doc, element("div", "apartado")) {
		if findFirst(sec, element("div", "orden")) == nil {
			continue
		}
		if p := findFirst(sec, element("p", "")); p != nil {
			if s := strippedText(p); s != "" {
				passos = append(passos, s)
			}
		}
	}

	nutricion := map[string]any{}
	if section := findFirst(doc, withID("div", "nutritional-info")); section != nil {
		for _, li := range findAll(section, element("li", "")) {
			key, value, ok := strings.Cut(strippedText(li), ":")
			if !ok {
				continue
			}
			nutricion[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	return record.Record{
		"titulo":       titulo,
		"imagem":       imagem,
		"ingredientes": ingredientes,
		"nutricion":    nutricion,
		"passos":       passos,
	}, nil
}
