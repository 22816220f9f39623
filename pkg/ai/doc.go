// Package ai generates text from a prompt through a hosted model.
//
// Three providers implement Generator:
//
//   - Gemini, through google.golang.org/genai.
//   - OpenAI chat completions over HTTP.
//   - Cosmic, the object store's own AI endpoint.
//
// New picks one from Config:
//
//	gen, err := ai.New(ctx, cfg, cosmicClient)
//	res, err := gen.GenerateText(ctx, "Write a welcome email", 4000)
//	fmt.Println(res.Text, res.InputTokens, res.OutputTokens)
package ai
