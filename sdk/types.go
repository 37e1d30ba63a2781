package sdk

import (
	"sort"

	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/models"
)

// Result is an alias for counter.Result, the envelope of one count. It
// encodes to JSON as either the success or the failure shape.
type Result = counter.Result

// Visualization is an alias for counter.Visualization, which attributes the
// characters of a text to tokens.
type Visualization = counter.Visualization

// Model is an alias for models.ModelInfo, a priced model of a provider.
type Model = models.ModelInfo

func sortModels(ms []Model) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}
