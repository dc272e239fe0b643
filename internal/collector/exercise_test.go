package collector

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exerciseCatalog = `[
  {
    "name": "Air Bike",
    "force": "pull",
    "level": "beginner",
    "mechanic": "compound",
    "equipment": "body only",
    "primaryMuscles": ["abdominals"],
    "secondaryMuscles": [],
    "instructions": ["Lie flat on the floor.", "Bring your knees up."],
    "category": "strength",
    "images": ["Air_Bike/0.jpg", "Air_Bike/1.jpg"],
    "id": "Air_Bike"
  },
  {
    "name": "Box Jump",
    "force": null,
    "level": "intermediate",
    "equipment": null,
    "primaryMuscles": ["hamstrings", "quadriceps"],
    "secondaryMuscles": ["calves"],
    "instructions": [],
    "category": "plyometrics",
    "images": ["0.jpg"]
  },
  {
    "name": "",
    "instructions": ["skipped"]
  },
  {
    "name": "Plank",
    "category": "strength",
    "images": []
  }
]`

func newExercise(t *testing.T, url string) (*Exercise, *bytes.Buffer) {
	t.Helper()
	var progress bytes.Buffer
	return NewExercise(Deps{
		Client:    testClient(1),
		Validator: testValidator(t),
		URL:       url,
		Progress:  &progress,
	}), &progress
}

func TestExercisePrepare(t *testing.T) {
	srv := serveString(t, "application/json", exerciseCatalog)
	e, _ := newExercise(t, srv.URL)

	n, err := e.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestExercisePrepareFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e, _ := newExercise(t, srv.URL)
	_, err := e.Prepare(context.Background())
	assert.ErrorContains(t, err, "load exercise catalog")
	assert.Empty(t, e.Fetch(context.Background(), 1))
}

func TestExerciseFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(exerciseCatalog))
	}))
	defer srv.Close()

	e, progress := newExercise(t, srv.URL)
	_, err := e.Prepare(context.Background())
	require.NoError(t, err)

	got := e.Fetch(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), hits.Load(), "catalog is loaded once")
	assert.Contains(t, progress.String(), "Processing exercise: Air Bike")

	airBike := got[0]
	assert.Equal(t, "Air Bike", airBike["titulo"])
	assert.Equal(t, map[string]any{
		"Categoria":            "strength",
		"Força":                "pull",
		"Nível":                "beginner",
		"Equipamento":          "body only",
		"Músculos Primários":   "abdominals",
		"Músculos Secundários": "Nenhum",
	}, airBike["detalhes"])
	assert.Equal(t, []string{"Lie flat on the floor.", "Bring your knees up."}, airBike["passos"])
	assert.Equal(t, []string{
		ExerciseImageBase + "Air_Bike/0.jpg",
		ExerciseImageBase + "Air_Bike/1.jpg",
	}, airBike["imagens"])

	boxJump := got[1]
	detalhes := boxJump["detalhes"].(map[string]any)
	assert.Equal(t, "Não especificado", detalhes["Força"])
	assert.Equal(t, "Não especificado", detalhes["Equipamento"])
	assert.Equal(t, "hamstrings, quadriceps", detalhes["Músculos Primários"])
	assert.Equal(t, []string{}, boxJump["passos"])
	assert.Equal(t, []string{ExerciseImageBase + "Box_Jump/0.jpg"}, boxJump["imagens"])
}

func TestExerciseFetchClampsAndSkipsNameless(t *testing.T) {
	srv := serveString(t, "application/json", exerciseCatalog)
	e, _ := newExercise(t, srv.URL)

	got := e.Fetch(context.Background(), 50)
	require.Len(t, got, 3)
	assert.Equal(t, "Plank", got[2]["titulo"])
	assert.Nil(t, got[2]["imagens"])
}

func TestExerciseFetchNonPositiveCount(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(exerciseCatalog))
	}))
	defer srv.Close()

	e, progress := newExercise(t, srv.URL)
	for _, count := range []int{0, -3} {
		assert.Nil(t, e.Fetch(context.Background(), count))
	}
	assert.Equal(t, int32(0), hits.Load())

	_, err := e.Prepare(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e.Fetch(context.Background(), -3))
	assert.Empty(t, progress.String())
}

func TestExerciseTranslatesText(t *testing.T) {
	srv := serveString(t, "application/json", exerciseCatalog)
	tr := &upperTranslator{}
	e := NewExercise(Deps{Client: testClient(1), Translator: tr, URL: srv.URL})

	got := e.Fetch(context.Background(), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Air Bike", got[0]["titulo"], "names are not translated")
	assert.Equal(t, []string{"LIE FLAT ON THE FLOOR.", "BRING YOUR KNEES UP."}, got[0]["passos"])
	assert.Equal(t, "STRENGTH", got[0]["detalhes"].(map[string]any)["Categoria"])
	assert.NotContains(t, tr.calls, "Nenhum")
}
