/*
Package ports defines the driven ports (interfaces) of the Scout workflow engine.

These interfaces decouple the workflow graph from the services it drives, so that
language-model backends, tool implementations, script sandboxes and run storage can
be swapped without touching node logic.

# Key Interfaces

  - ModelGateway: sends a conversation to a language model and returns one reply.
  - ToolInvoker / Capability: dispatches tool calls to registered capabilities.
  - SandboxRunner: executes a candidate script in isolation and captures its output.
  - RunStore: persists the final state of finished runs.
  - Locker: keeps two runs from processing the same site at once.
*/
package ports
