package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) Generate(_ context.Context, prompt string, _ GenerationParams) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestNarrativeGenerator_PromptAssembly(t *testing.T) {
	fake := &fakeClient{response: "  a narrative  "}
	g := NewNarrativeGenerator(fake, GenerationParams{})

	out, err := g.Generate(context.Background(), "latency project", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "a narrative" {
		t.Errorf("narrative not trimmed: %q", out)
	}
	if !strings.Contains(fake.prompts[0], "latency project") {
		t.Error("prompt missing project context")
	}
	if strings.Contains(fake.prompts[0], "compliance review") {
		t.Error("first-iteration prompt should carry no critique block")
	}

	if _, err := g.Generate(context.Background(), "latency project", "add metrics"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fake.prompts[1], "add metrics") {
		t.Error("critique not threaded into prompt")
	}
}

func TestNarrativeGenerator_PropagatesError(t *testing.T) {
	g := NewNarrativeGenerator(&fakeClient{err: errors.New("backend down")}, GenerationParams{})
	if _, err := g.Generate(context.Background(), "ctx", ""); err == nil {
		t.Error("expected error from failing backend")
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
		wantErr  bool
	}{
		{"bare integer", "85", 0.85, false},
		{"wrapped in prose", "I would grade this 70 out of 100.", 0.70, false},
		{"decimal", "92.5", 0.925, false},
		{"zero", "0", 0.0, false},
		{"hundred", "100", 1.0, false},
		{"no number", "looks great", 0, true},
		{"out of range", "250", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGrade(tt.response)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGrade(%q) error = %v, wantErr %v", tt.response, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseGrade(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestLLMJudge_Score(t *testing.T) {
	fake := &fakeClient{response: "85"}
	j := NewLLMJudge(fake, GenerationParams{})

	score, err := j.Score(context.Background(), "the narrative")
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.85 {
		t.Errorf("score = %v, want 0.85", score)
	}
	if !strings.Contains(fake.prompts[0], "the narrative") {
		t.Error("judge prompt missing narrative")
	}
}

func TestOllamaClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.1","response":"generated text","done":true}`))
	}))
	defer srv.Close()

	client := NewOllamaClientWithTarget(srv.URL, "llama3.1")
	out, err := client.Generate(context.Background(), "prompt", GenerationParams{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "generated text" {
		t.Errorf("response = %q", out)
	}
}

func TestOllamaClient_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'missing' not found"}`))
	}))
	defer srv.Close()

	client := NewOllamaClientWithTarget(srv.URL, "missing")
	if _, err := client.Generate(context.Background(), "prompt", GenerationParams{}); err == nil {
		t.Error("expected model-not-found error")
	}
}
