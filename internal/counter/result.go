package counter

import (
	"github.com/bytedance/sonic"
	"github.com/mark3labs/tokencount/internal/tokens"
)

// Request is one counting request.
type Request struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Visualization attributes the characters of Text to tokens. All fields are
// empty containers when the provider only reports a count.
type Visualization struct {
	Text        string         `json:"text"`
	Tokens      []string       `json:"tokens"`
	TokenIDs    []int          `json:"tokenIds"`
	CharToToken tokens.CharMap `json:"charToToken"`
}

// Result is the envelope returned for every request that reaches counting.
// It encodes as either the success shape or the failure shape, never both.
type Result struct {
	Success       bool
	TokenCount    int
	Price         float64
	Visualization Visualization
	Error         string
}

// Fail returns a failure envelope carrying msg.
func Fail(msg string) Result {
	return Result{Error: msg}
}

type successEnvelope struct {
	Success       bool          `json:"success"`
	TokenCount    int           `json:"tokenCount"`
	Price         float64       `json:"price"`
	Visualization Visualization `json:"visualization"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return sonic.ConfigStd.Marshal(failureEnvelope{Error: r.Error})
	}
	v := r.Visualization
	if v.Tokens == nil {
		v.Tokens = []string{}
	}
	if v.TokenIDs == nil {
		v.TokenIDs = []int{}
	}
	if v.CharToToken == nil {
		v.CharToToken = tokens.CharMap{}
	}
	return sonic.ConfigStd.Marshal(successEnvelope{
		Success:       true,
		TokenCount:    r.TokenCount,
		Price:         r.Price,
		Visualization: v,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result) UnmarshalJSON(data []byte) error {
	var env struct {
		Success       bool          `json:"success"`
		TokenCount    int           `json:"tokenCount"`
		Price         float64       `json:"price"`
		Visualization Visualization `json:"visualization"`
		Error         string        `json:"error"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
		return err
	}
	*r = Result{
		Success:       env.Success,
		TokenCount:    env.TokenCount,
		Price:         env.Price,
		Visualization: env.Visualization,
		Error:         env.Error,
	}
	return nil
}
