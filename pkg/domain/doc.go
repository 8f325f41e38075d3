/*
Package domain contains the core domain models of the Scout workflow engine.

It defines the record threaded through the workflow graph, the conversation turns
exchanged with language models, tool declarations and the sentinel errors shared by
every adapter. The package is kept free of I/O so that nodes, routers and adapters
can depend on it without pulling in transport concerns.

# Key Entities

  - State: the WorkflowState of one site run (messages, scratch fields, counters).
  - Message: a role-tagged conversation turn, optionally carrying tool calls.
  - ToolSpec / ToolCall: declared capabilities and the model's request to invoke one.
  - Job / JobList: the structured hand-off produced from a finished run.
*/
package domain
