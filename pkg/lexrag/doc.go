// Package lexrag answers legal questions in process: it embeds the question,
// retrieves the owner's nearest passages from a vector index and asks a chat
// model for a cited answer. It wires the same pipeline the lexrag HTTP server uses.
//
//	client, err := lexrag.New(ctx,
//	    lexrag.WithQdrant("https://xyz.cloud.qdrant.io", qdrantKey),
//	    lexrag.WithCollection("Legal-Docs"),
//	    lexrag.WithOpenAI(openaiKey),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	ans, err := client.Ask(ctx, lexrag.Request{Query: "ما هي مدة الإجازة السنوية؟", Owner: "acme"})
//	for i, c := range ans.Citations {
//	    fmt.Printf("[%d] %.3f %s\n", i+1, c.Score, c.Text)
//	}
package lexrag
