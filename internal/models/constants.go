package models

const (
	ContextSeparator = "\n---\n"
	ThinkTag         = `(?s)<think>.*?</think>`

	// NotFoundAnswer is the reply the generator must give when the context
	// does not contain the answer.
	NotFoundAnswer = "I don't know. The answer is not available in the uploaded documents."
)

var (
	AnswerInstruction = `You are a helpful assistant that answers questions about the uploaded documents.
Answer only from the context provided between <context> tags. Do not use outside knowledge and do not make up facts.
If the context is empty, or no part of it is relevant to the question, reply exactly: "` + NotFoundAnswer + `"`

	QuestionPromptTemplate = `<context>
%s
</context>
Question: %s
`
)
