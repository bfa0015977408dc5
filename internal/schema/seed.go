package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
)

//go:embed seed.cue
var seedCUE []byte

// Meal is one row of the Meals table.
type Meal struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Carbs    int    `json:"carbs"`
}

// String renders the meal for display: {Oatmeal, 40, 50}.
func (m Meal) String() string {
	return fmt.Sprintf("{%s, %d, %d}", m.Name, m.Calories, m.Carbs)
}

// mealInput is the shape #Meal accepts; the identity is not part of it.
type mealInput struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Carbs    int    `json:"carbs"`
}

// DefaultSeed returns the baseline meals from the embedded catalogue.
func DefaultSeed() ([]Meal, error) {
	v, err := compileCatalogue()
	if err != nil {
		return nil, err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("seed catalogue: %w", err)
	}

	var meals []Meal
	if err := v.LookupPath(cue.ParsePath("meals")).Decode(&meals); err != nil {
		return nil, fmt.Errorf("seed catalogue: decode meals: %w", err)
	}
	return normalize(meals), nil
}

// ValidateSeed checks every meal against the #Meal definition.
func ValidateSeed(meals []Meal) error {
	v, err := compileCatalogue()
	if err != nil {
		return err
	}
	def := v.LookupPath(cue.ParsePath("#Meal"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("seed catalogue: lookup #Meal: %w", err)
	}

	ctx := v.Context()
	for i, m := range meals {
		in := ctx.Encode(mealInput{Name: m.Name, Calories: m.Calories, Carbs: m.Carbs})
		if err := def.Unify(in).Validate(cue.Concrete(true)); err != nil {
			return &SchemaError{Statement: i, Reason: fmt.Sprintf("meal %q violates #Meal: %v", m.Name, err)}
		}
	}
	return nil
}

func compileCatalogue() (cue.Value, error) {
	v := cuecontext.New().CompileBytes(seedCUE, cue.Filename("seed.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("seed catalogue: %w", err)
	}
	return v, nil
}

// normalize trims names and puts them in Unicode NFC so equal-looking names
// are stored identically.
func normalize(meals []Meal) []Meal {
	out := make([]Meal, len(meals))
	for i, m := range meals {
		m.Name = norm.NFC.String(strings.TrimSpace(m.Name))
		out[i] = m
	}
	return out
}
