package prompt

import (
	"fmt"
	"strings"

	"github.com/abirzishan32/Tukhor-AI/internal/retriever"
)

const ragTemplate = `You are a helpful AI assistant that answers questions based on the provided context from Bengali and English documents.

Key Instructions:
1. Answer in the SAME LANGUAGE as the question
2. If the question is in Bengali (বাংলা), answer in Bengali
3. If the question is in English, answer in English
4. Base your answer ONLY on the provided context
5. If you cannot find the answer in the context, say "আমি প্রদত্ত প্রসঙ্গে এই প্রশ্নের উত্তর খুঁজে পাচ্ছি না।" (Bengali) or "I cannot find the answer to this question in the provided context." (English)
6. Be concise and direct in your answers
7. Cite relevant parts of the context when possible

Context from documents:
%s

Previous conversation context:
%s

Question: %s

Answer:`

const fallbackTemplate = `You are a helpful AI assistant. Answer the following question to the best of your ability.

Important Instructions:
1. Answer in the SAME LANGUAGE as the question
2. If the question is in Bengali (বাংলা), answer in Bengali
3. If the question is in English, answer in English
4. Be helpful and informative
5. If you don't know something, admit it honestly

Question: %s

Answer:`

// Assembler renders deterministic prompts for the generation model. The
// same inputs always produce the same prompt text.
type Assembler struct {
	contextBudget int
}

// NewAssembler creates an Assembler. contextBudget caps the document
// context section in characters; non-positive disables the cap.
func NewAssembler(contextBudget int) *Assembler {
	return &Assembler{contextBudget: contextBudget}
}

// RAGPrompt renders the grounded-answer prompt from retrieved chunks and
// the conversation context.
func (a *Assembler) RAGPrompt(question, conversationContext string, chunks []retriever.RetrievedChunk) string {
	return fmt.Sprintf(ragTemplate, a.FormatContext(chunks), conversationContext, question)
}

// FallbackPrompt renders the ungrounded prompt used when no relevant
// context exists.
func (a *Assembler) FallbackPrompt(question string) string {
	return fmt.Sprintf(fallbackTemplate, question)
}

// FormatContext renders chunks as numbered, attributed source blocks.
// Chunks arrive ranked by similarity; when the rendered context would
// exceed the budget, the lowest-ranked chunks are dropped first. At least
// one chunk is always kept.
func (a *Assembler) FormatContext(chunks []retriever.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "No relevant context found."
	}

	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = fmt.Sprintf("Source %d (Similarity: %.2f, Document: %s):\n%s\n",
			i+1, chunk.Similarity, chunk.DocumentTitle, chunk.Content)
	}

	keep := len(blocks)
	for keep > 1 {
		if a.contextBudget <= 0 || len(strings.Join(blocks[:keep], "\n")) <= a.contextBudget {
			break
		}
		keep--
	}
	return strings.Join(blocks[:keep], "\n")
}
