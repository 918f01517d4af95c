package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/varalys/clinprep/internal/encoder"
	"github.com/varalys/clinprep/internal/table"
	"github.com/varalys/clinprep/internal/tokenize"
	"github.com/varalys/clinprep/pkg/core"
)

// ExampleReplaceEntitiesWithPHI redacts the two note columns of a small table.
func ExampleReplaceEntitiesWithPHI() {
	notes := table.New("Assessment", "Plan Subsection")
	_ = notes.Append(table.Text("Seen by [**Dr. Smith**] on [**2024-03-02**]"), table.Null())

	clean, err := core.ReplaceEntitiesWithPHI(notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact failed: %v\n", err)
		return
	}
	ac, _ := clean.Column("assessment_clean")
	pc, _ := clean.Column("plan_clean")
	fmt.Println(ac[0].Value)
	fmt.Println(pc[0].Valid)
	// Output:
	// Seen by @@PHI@@ on @@PHI@@
	// false
}

// ExampleGetCLSRepr embeds three notes with a small seeded encoder.
func ExampleGetCLSRepr() {
	gens := core.SetSeed(42)
	model, err := encoder.NewBERT(encoder.Config{VocabSize: 64, Hidden: 8, Layers: 1, MaxLen: 16}, gens)
	if err != nil {
		panic(err)
	}
	tk, err := tokenize.New(64, 16)
	if err != nil {
		panic(err)
	}
	ds, err := tk.Dataset([]string{"chest pain", "f/u at @@PHI@@", "no acute distress"}, 2)
	if err != nil {
		panic(err)
	}

	cls, err := core.GetCLSRepr(context.Background(), model, ds, "cpu")
	if err != nil {
		panic(err)
	}
	rows, cols := cls.Dims()
	fmt.Println(rows, cols)
	// Output: 3 8
}
