package chat

import (
	"fmt"

	"github.com/datasleuth/server/internal/analysis/model"
)

const answerSystemPrompt = `You are a professional data analyst answering questions about a data
analysis report.

Guidelines:
- Provide clear, concise answers based on the available analysis
- Use a professional, objective tone
- If the question cannot be answered from the available data, say so
- Focus on factual information from the analysis
- Avoid speculation beyond what the data shows
- Maintain a formal business writing style
- Respond in plain text without markdown formatting`

const evaluatorSystemPrompt = `You are a quality evaluator for data analysis answers. Judge whether the
answer below adequately addresses the question, along four axes:
1. Does it directly address the question?
2. Is it supported by the available analysis data?
3. Is it complete, or does it leave obvious parts of the question open?
4. Would re-running the analysis with a sharper focus produce a materially
   better answer?

Respond with a valid JSON object in this exact format:
{
  "needsReanalysis": boolean,
  "reason": "short explanation of the judgement",
  "focusAreas": ["aspects a refined analysis should concentrate on"]
}

Recommend reanalysis only when the current analysis genuinely lacks the
information needed, not merely because the answer could be phrased better.`

const synthesisSystemPrompt = `You design targeted instructions for a multi-stage data analysis pipeline.
Given a user question and the focus areas a refined analysis should cover,
write one short instruction per stage.

Respond with a valid JSON object in this exact format:
{
  "profilerPrompt": "instruction biased toward structure and statistics",
  "detectivePrompt": "instruction biased toward patterns and relationships",
  "storytellerPrompt": "instruction biased toward the narrative angle"
}

Each instruction must be self-contained and specific to the question.`

// fallbackOverrides builds per-stage instructions directly from the question
// text. Used when prompt synthesis fails; refinement proceeds regardless.
func fallbackOverrides(question string) model.StageOverrides {
	return model.StageOverrides{
		Profiler:    fmt.Sprintf("Analyze the dataset structure and statistics, focusing on aspects relevant to: %s", question),
		Detective:   fmt.Sprintf("Look for patterns, correlations, and anomalies that help answer: %s", question),
		Storyteller: fmt.Sprintf("Shape the narrative so it addresses: %s", question),
	}
}
