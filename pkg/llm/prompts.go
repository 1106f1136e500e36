package llm

import (
	"fmt"
	"strings"
)

func summarizePrompt(sn Snippet) string {
	var b strings.Builder
	b.WriteString("You are a technical writer documenting a codebase.\n")
	fmt.Fprintf(&b, "Summarize the following %s %s in 2-3 sentences for developer documentation. ", sn.Language, sn.Kind)
	b.WriteString("Describe what it does and when to use it. Do not restate the code.\n\n")
	if sn.Docstring != "" {
		fmt.Fprintf(&b, "Existing documentation:\n%s\n\n", sn.Docstring)
	}
	fmt.Fprintf(&b, "```%s\n%s\n```", sn.Language, sn.Code)
	return b.String()
}

func docstringPrompt(sn Snippet, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a complete, idiomatic %s docstring for %s %q. ", sn.Language, sn.Kind, sn.Name)
	b.WriteString("Document parameters, return values, and failure modes where visible in the code. ")
	b.WriteString("Return only the docstring text without surrounding quotes or code fences.\n\n")
	if summary != "" {
		fmt.Fprintf(&b, "Summary of the element:\n%s\n\n", summary)
	}
	if sn.Docstring != "" {
		fmt.Fprintf(&b, "Existing docstring to improve:\n%s\n\n", sn.Docstring)
	}
	fmt.Fprintf(&b, "```%s\n%s\n```", sn.Language, sn.Code)
	return b.String()
}

func translatePrompt(text, targetLanguage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following technical documentation into %s. ", targetLanguage)
	b.WriteString("Preserve Markdown structure, code blocks, and identifiers exactly; translate prose only. ")
	b.WriteString("Return only the translated text.\n\n")
	b.WriteString(text)
	return b.String()
}

func answerPrompt(question string, contextChunks []string) string {
	var b strings.Builder
	b.WriteString("You are documenting a software project. Answer the question using only the provided code context. ")
	b.WriteString("Write developer-facing Markdown prose.\n\n")
	for i, chunk := range contextChunks {
		fmt.Fprintf(&b, "Context %d:\n%s\n\n", i+1, chunk)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
