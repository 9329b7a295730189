package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/felixgeelhaar/secprops/internal/exec"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// TestBatchInvariants verifies ordering and isolation for arbitrary failure patterns
func TestBatchInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	build := func(failures []bool) []Item {
		out := make([]Item, len(failures))
		for i, fail := range failures {
			v := fmt.Sprintf("v%d", i)
			if fail {
				v = "bad" + v
			}
			out[i] = Item{Key: fmt.Sprintf("key%d", i), Value: v}
		}
		return out
	}

	// Property 1: one result per item, in input order
	properties.Property("report preserves length and order", prop.ForAll(
		func(failures []bool, concurrency int) bool {
			if len(failures) == 0 {
				return true
			}
			input := build(failures)
			orch := New(&fakeEngine{}, Config{Concurrency: concurrency}, log.Discard())
			report, err := orch.Run(context.Background(), Request{
				Items: input, Secret: "pw", Version: runtime.Java11, Operation: exec.OpEncrypt,
			})
			if err != nil || len(report.Items) != len(input) {
				return false
			}
			for i := range input {
				if report.Items[i].Key != input[i].Key || report.Items[i].Original != input[i].Value {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(1, 4),
	))

	// Property 2: an item's outcome depends only on that item
	properties.Property("failures are isolated", prop.ForAll(
		func(failures []bool, concurrency int) bool {
			if len(failures) == 0 {
				return true
			}
			orch := New(&fakeEngine{}, Config{Concurrency: concurrency}, log.Discard())
			report, err := orch.Run(context.Background(), Request{
				Items: build(failures), Secret: "pw", Version: runtime.Java17, Operation: exec.OpDecrypt,
			})
			if err != nil {
				return false
			}
			failed := 0
			for i, fail := range failures {
				r := report.Items[i]
				if r.Success == fail {
					return false
				}
				if fail {
					failed++
					if r.Derived != "" || r.Error == "" {
						return false
					}
				}
			}
			return report.Failed == failed && report.Succeeded == len(failures)-failed && report.Total == len(failures)
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
