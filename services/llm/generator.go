package llm

import (
	"context"
	"fmt"
	"strings"
)

// narrativePromptTemplate frames the generation request. The critique
// block is appended only when feedback from a prior evaluation exists.
const narrativePromptTemplate = `Write a project narrative documenting research and development work for the following project context.

Describe the technical uncertainty faced, the hypotheses formed, the experiments and iterations performed (including failures), and the quantitative results measured, with units and dates.

Project context:
%s`

const critiqueBlockTemplate = `

An automated compliance review of the previous draft produced this feedback. Revise the narrative to address every point:
%s`

// NarrativeGenerator adapts an LLMClient to the refinement loop's
// generator contract: it renders the project context and optional
// critique into a prompt and returns the model's narrative verbatim.
//
// Stateless; each call is independent.
type NarrativeGenerator struct {
	client LLMClient
	params GenerationParams
}

func NewNarrativeGenerator(client LLMClient, params GenerationParams) *NarrativeGenerator {
	return &NarrativeGenerator{client: client, params: params}
}

func (g *NarrativeGenerator) Generate(ctx context.Context, projectContext, critique string) (string, error) {
	prompt := fmt.Sprintf(narrativePromptTemplate, projectContext)
	if critique != "" {
		prompt += fmt.Sprintf(critiqueBlockTemplate, critique)
	}
	narrative, err := g.client.Generate(ctx, prompt, g.params)
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	return strings.TrimSpace(narrative), nil
}
