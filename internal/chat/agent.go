// Package chat implements the dataset question-answering agent. It grounds
// every LLM prompt in statistics computed locally from the dataset, so the
// model never sees raw rows beyond a handful of sample values.
package chat

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"datalens/domain/profile"
	"datalens/ports"

	"github.com/montanaflynn/stats"
)

const statsSampleLimit = 10

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Agent answers natural-language questions about a dataset. The LLM client
// is injected; pass a mock in tests.
type Agent struct {
	client    ports.LLMClient
	model     string
	maxTokens int
}

// NewAgent creates a chat agent bound to a model.
func NewAgent(client ports.LLMClient, model string, maxTokens int) *Agent {
	return &Agent{client: client, model: model, maxTokens: maxTokens}
}

// Enabled reports whether a client is configured. A disabled agent still
// answers, with a message explaining what is missing.
func (a *Agent) Enabled() bool {
	return a.client != nil
}

// Ask answers a question about the dataset. The answer is always a usable
// string: LLM failures come back as an inline warning instead of an error,
// so the caller can render whatever Ask returns.
func (a *Agent) Ask(ctx context.Context, question string, ds *profile.Dataset, prof *profile.DatasetProfile) string {
	if !a.Enabled() {
		return "Chat is not configured. Set OPENAI_API_KEY to enable dataset questions."
	}

	prompt := a.buildPrompt(question, ds, prof)

	answer, err := a.client.ChatCompletion(ctx, a.model, prompt, a.maxTokens)
	if err != nil {
		log.Printf("[Chat] LLM call failed: %v", err)
		return fmt.Sprintf("Warning: the assistant could not be reached (%v). The statistics above are still computed locally.", err)
	}
	return answer
}

// buildPrompt assembles the grounded prompt: dataset shape, column list,
// and a stats block for whichever column the question mentions.
func (a *Agent) buildPrompt(question string, ds *profile.Dataset, prof *profile.DatasetProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset %q has %d rows and %d columns.\n", ds.Name, ds.Rows(), len(ds.Columns))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(ds.ColumnNames(), ", "))
	if prof != nil {
		b.WriteString("A full profile of this dataset has been computed.\n")
	}

	if colName := extractColumnName(question, ds.ColumnNames()); colName != "" {
		col, _ := ds.Column(colName)
		fmt.Fprintf(&b, "\nStatistics for column %q:\n%s\n", colName, columnStats(col))
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// extractColumnName finds the column mentioned earliest in the question.
// Matching is case-insensitive on whole word tokens, so "id" in a question
// matches a column named "ID" but not "order_id".
func extractColumnName(question string, columns []string) string {
	byLower := make(map[string]string, len(columns))
	for _, name := range columns {
		lower := strings.ToLower(name)
		if _, ok := byLower[lower]; !ok {
			byLower[lower] = name
		}
	}
	for _, t := range wordPattern.FindAllString(strings.ToLower(question), -1) {
		if name, ok := byLower[t]; ok {
			return name
		}
	}
	return ""
}

// columnStats renders a small descriptive block for one column. A failed
// statistic degrades to a note inside the block rather than failing the
// whole prompt.
func columnStats(col *profile.Column) string {
	var b strings.Builder

	fmt.Fprintf(&b, "- dtype: %s\n", col.Type)
	fmt.Fprintf(&b, "- nulls: %d of %d\n", col.NullCount(), col.Len())

	if col.IsNumeric() {
		nums := col.Numbers()
		if len(nums) == 0 {
			b.WriteString("- no numeric values present\n")
			return b.String()
		}
		min, errMin := stats.Min(nums)
		max, errMax := stats.Max(nums)
		mean, errMean := stats.Mean(nums)
		median, errMedian := stats.Median(nums)
		if errMin != nil || errMax != nil || errMean != nil || errMedian != nil {
			b.WriteString("- descriptive statistics unavailable for this column\n")
			return b.String()
		}
		fmt.Fprintf(&b, "- min: %g, max: %g, mean: %g, median: %g\n", min, max, mean, median)
		if len(nums) >= 2 {
			if std, err := stats.StandardDeviationSample(nums); err == nil {
				fmt.Fprintf(&b, "- std: %g\n", std)
			}
		}
		return b.String()
	}

	fmt.Fprintf(&b, "- distinct: %d\n", col.DistinctNonNull())
	if samples := col.SampleValues(statsSampleLimit); len(samples) > 0 {
		fmt.Fprintf(&b, "- sample values: %s\n", strings.Join(samples, ", "))
	}
	return b.String()
}
