package services

import (
	"fmt"
	"strings"
)

// discoveryPromptTemplate asks the model to generalize the question and name
// the graph entities it touches. The response must be bare JSON so the
// pipeline can parse it without cleanup in the common case.
const discoveryPromptTemplate = `You are an analyst working over a curated knowledge base.

Given the user question below, do the following:
1. Write a stepback question: a more general phrasing that captures the underlying intent.
2. Write an expanded question: the original question enriched with implied context and synonyms.
3. List the business entities the question mentions or implies.
4. Search the attached knowledge-graph index and list the node names most relevant to the question.

Question: %s

Respond with JSON only, no markdown fences, in exactly this shape:
{
  "original_question": "...",
  "stepback_question": "...",
  "expanded_question": "...",
  "entities": ["..."],
  "node_names": ["..."]
}`

// generationPromptTemplate asks for a grounded answer with citations. The
// knowledge-graph block is reasoning context only; quotations must come from
// the retrieved documents.
const generationPromptTemplate = `You are an internal knowledge assistant for %s.

Answer the user's question using ONLY information retrieved from the attached document store. If the documents do not contain the answer, reply with exactly: %s

%s
Run searches for each of these queries and synthesize the results:
%s

Respond with JSON only, no markdown fences, in exactly this shape:
{
  "stepback_intent": "the general intent behind the question",
  "expanded_question": "the question as you interpreted it",
  "business_entities": ["entities involved"],
  "citations": [{"id": "1", "source": "document file name"}],
  "answer": "the full answer in markdown"
}

Cite every factual claim. Citation sources must be the file names of retrieved documents, never knowledge-graph entries.

Question: %s`

// DiscoveryPrompt renders the node-discovery prompt for a question.
func DiscoveryPrompt(question string) string {
	return fmt.Sprintf(discoveryPromptTemplate, question)
}

// GenerationPrompt renders the grounded-generation prompt.
func GenerationPrompt(domainName, kgText string, queries []string, question string) string {
	if domainName == "" {
		domainName = "the organization"
	}

	kgBlock := ""
	if kgText != "" {
		kgBlock = kgText + "\n"
	}

	var queryLines strings.Builder
	for i, q := range queries {
		fmt.Fprintf(&queryLines, "%d. %s\n", i+1, q)
	}

	return fmt.Sprintf(generationPromptTemplate,
		domainName, SentinelAnswer, kgBlock, queryLines.String(), question)
}
