/*
Package graph implements the workflow executor: a directed graph of named nodes
joined by unconditional edges and conditional routers.

Each node is an Action that receives an exclusive copy of the run state and returns
the (possibly modified) state. After every node the executor checks that the message
history only grew, asks the outgoing edge for the successor and repeats until a
router or edge yields Terminal or the step ceiling is reached.

	g := graph.New(graph.WithMaxSteps(64))
	g.AddNode("writer", writeScript)
	g.AddNode("eval", evaluateScript)
	g.SetEntryPoint("writer")
	g.AddEdge("writer", "eval")
	g.AddConditionalEdge("eval", routers.EvaluationRouter, graph.Terminal, "writer")

	final, err := g.Run(ctx, *state)
*/
package graph
