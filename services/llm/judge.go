package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// judgePromptTemplate asks for a bare numeric grade so the response
// can be parsed without structured-output support on the backend.
const judgePromptTemplate = `Grade the following project narrative on how convincingly it documents qualified research: technical uncertainty, systematic experimentation, and quantitative evidence.

Respond with a single integer from 0 to 100, where 100 is a flawless research narrative. Respond with the number only.

Narrative:
%s`

// gradePattern extracts the first integer or decimal in the response.
// Models occasionally wrap the grade in prose despite instructions.
var gradePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// LLMJudge adapts an LLMClient to the hybrid blender's judge
// contract, mapping a 0-100 model grade onto the 0.0-1.0 scale.
type LLMJudge struct {
	client LLMClient
	params GenerationParams
}

func NewLLMJudge(client LLMClient, params GenerationParams) *LLMJudge {
	return &LLMJudge{client: client, params: params}
}

// Score grades a narrative. Any backend or parse failure is returned
// as an error; the blender treats it as a fallback signal.
func (j *LLMJudge) Score(ctx context.Context, narrative string) (float64, error) {
	response, err := j.client.Generate(ctx, fmt.Sprintf(judgePromptTemplate, narrative), j.params)
	if err != nil {
		return 0, fmt.Errorf("judge generation failed: %w", err)
	}
	return parseGrade(response)
}

// parseGrade parses a 0-100 grade from a model response into
// [0.0, 1.0], rejecting out-of-range values rather than clamping so a
// confused model reads as a failure.
func parseGrade(response string) (float64, error) {
	raw := gradePattern.FindString(response)
	if raw == "" {
		return 0, fmt.Errorf("no numeric grade in judge response %q", truncate(response, 80))
	}
	grade, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse judge grade %q: %w", raw, err)
	}
	if grade < 0 || grade > 100 {
		return 0, fmt.Errorf("judge grade %v out of range [0,100]", grade)
	}
	return grade / 100.0, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
