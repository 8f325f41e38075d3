package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/graph"
	"github.com/aretw0/scout/pkg/routers"
)

// EvaluatorName tags the assistant turn produced locally when a run fails the
// deterministic check.
const EvaluatorName = "evaluator"

type nodes struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

func (n *nodes) event(s domain.State, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: s.RunID, Site: s.TargetSite}
}

// agent asks whether a registered scraper covers the site.
func (n *nodes) agent(ctx context.Context, s domain.State) (domain.State, error) {
	s.PendingQuestion = ""

	system := fmt.Sprintf("%s\n\nCompany: %s\nCareer page: %s", agentSystemPrompt, s.TargetSite, s.CareerPage)
	conv := append([]domain.Message{domain.SystemMessage(system)}, s.Messages...)

	reply, err := n.deps.model(RoleAgent).Send(ctx, conv, n.deps.Tools.Specs(domain.ToolGroupJobs))
	if err != nil {
		return s, err
	}
	s.Append(reply)
	return s, nil
}

// tools returns a node that answers every tool call of the latest reply.
// Capability faults become visible error turns; an unknown tool aborts the run.
// With capture set, the combined tool output becomes the raw job text.
func (n *nodes) tools(node, group string, capture bool) graph.Action {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		last := s.Last()
		var outputs []string
		for _, call := range last.ToolCalls {
			in := &domain.ToolEvent{EventBase: n.event(s, domain.EventToolCall), NodeID: node, ToolName: call.Name, Input: call.Args}
			n.deps.Hooks.ToolCall(ctx, in)

			start := time.Now()
			out, err := n.deps.Tools.Invoke(ctx, call.Name, call.Args)

			ret := &domain.ToolEvent{
				EventBase: n.event(s, domain.EventToolReturn),
				NodeID:    node,
				ToolName:  call.Name,
				Output:    out,
				IsError:   err != nil,
				Duration:  time.Since(start),
			}
			n.deps.Hooks.ToolReturn(ctx, ret)

			switch {
			case err == nil:
				outputs = append(outputs, out)
				s.Append(domain.ToolResultMessage(call, out))
			case errors.Is(err, domain.ErrToolExecution):
				n.logger.Warn("tool failed", "run_id", s.RunID, "node", node, "tool", call.Name, "err", err)
				s.Append(domain.ToolResultMessage(call, "Error: "+err.Error()))
			default:
				return s, err
			}
		}
		if capture && len(outputs) > 0 {
			s.RawJobText = strings.Join(outputs, "\n")
		}
		return s, nil
	}
}

// codePlanner asks for an extraction strategy, optionally reading the page first.
func (n *nodes) codePlanner(ctx context.Context, s domain.State) (domain.State, error) {
	conv := []domain.Message{
		domain.SystemMessage(plannerSystemPrompt),
		domain.HumanMessage(plannerRequest(s.CareerPage)),
	}
	conv = append(conv, s.Messages...)

	reply, err := n.deps.model(RolePlanner).Send(ctx, conv, n.deps.Tools.Specs(domain.ToolGroupWeb))
	if err != nil {
		return s, err
	}
	s.Append(reply)
	s.PendingQuestion = reply.Content
	return s, nil
}

// codeWriter drafts a new candidate script. It is the only node that counts attempts.
func (n *nodes) codeWriter(ctx context.Context, s domain.State) (domain.State, error) {
	s.Append(domain.HumanMessage(writerRequest(n.cfg.ScriptLanguage, s.TargetSite, s.CareerPage, s.PendingQuestion)))
	conv := append([]domain.Message{domain.SystemMessage(writerSystemPrompt(n.cfg))}, s.Messages...)

	reply, err := n.deps.model(RoleWriter).Send(ctx, conv, nil)
	if err != nil {
		return s, err
	}
	s.Append(reply)
	s.CandidateScript = domain.StripCodeFence(reply.Content)
	s.RetryCount++
	s.Outcome = domain.OutcomePending

	n.logger.Debug("script drafted", "run_id", s.RunID, "attempt", s.RetryCount, "bytes", len(s.CandidateScript))
	return s, nil
}

// codeEval runs the candidate and judges it. Only an exact "Yes" from the
// evaluator model accepts; a failed deterministic check never reaches the model.
func (n *nodes) codeEval(ctx context.Context, s domain.State) (domain.State, error) {
	run, err := n.deps.Sandbox.Execute(ctx, s.RunID, s.CandidateScript)
	if err != nil {
		return s, err
	}
	s.RawJobText = run.Stdout

	verdict := Evaluate(run)
	var reply domain.Message
	if !verdict.Pass {
		reply = domain.Message{Role: domain.RoleAssistant, Name: EvaluatorName, Content: verdict.Reason}
		s.Append(reply)
	} else {
		s.Append(domain.HumanMessage(evaluationRequest(run, verdict.Reason)))
		conv := append([]domain.Message{domain.SystemMessage(evaluatorSystemPrompt)}, s.Messages...)
		reply, err = n.deps.model(RoleEvaluator).Send(ctx, conv, nil)
		if err != nil {
			return s, err
		}
		s.Append(reply)
	}

	accepted := reply.Content == domain.TokenAccept
	switch {
	case accepted:
		s.Outcome = domain.OutcomeAccepted
		s.PendingQuestion = ""
	case s.RetryCount > n.cfg.MaxRetries:
		s.Outcome = domain.OutcomeRejectedFatal
		s.PendingQuestion = rewriteRequest(s.CandidateScript, run, reply.Content)
	default:
		s.Outcome = domain.OutcomeRejectedRetry
		s.PendingQuestion = rewriteRequest(s.CandidateScript, run, reply.Content)
	}

	n.deps.Hooks.ScriptRun(ctx, &domain.ScriptEvent{
		EventBase: n.event(s, domain.EventScriptRun),
		Attempt:   s.RetryCount,
		ExitCode:  run.ExitCode,
		Accepted:  accepted,
		Duration:  run.Duration,
	})
	n.logger.Info("script evaluated",
		"run_id", s.RunID,
		"attempt", s.RetryCount,
		"exit_code", run.ExitCode,
		"precheck", verdict.Pass,
		"jobs", verdict.Jobs,
		"outcome", s.Outcome,
	)
	return s, nil
}

// filterer narrows the raw listing to the configured topics.
func (n *nodes) filterer(ctx context.Context, s domain.State) (domain.State, error) {
	source := s.RawJobText
	if strings.TrimSpace(source) == "" {
		source = s.Last().Content
	}
	if len(n.cfg.IncludeTopics) == 0 && len(n.cfg.ExcludeTopics) == 0 {
		s.RawJobText = source
		return s, nil
	}

	conv := []domain.Message{
		domain.SystemMessage(filterSystemPrompt(n.cfg)),
		domain.HumanMessage(filterRequest(source)),
	}
	reply, err := n.deps.model(RoleFilter).Send(ctx, conv, nil)
	if err != nil {
		return s, err
	}
	s.Append(reply)
	s.RawJobText = reply.Content
	return s, nil
}

// formatter turns the filtered listing into a JSON job list.
func (n *nodes) formatter(ctx context.Context, s domain.State) (domain.State, error) {
	conv := []domain.Message{domain.HumanMessage(formatRequest(s.RawJobText))}
	reply, err := n.deps.model(RoleFormatter).Send(ctx, conv, nil)
	if err != nil {
		return s, err
	}
	s.Append(reply)

	s.RawJobText = domain.StripCodeFence(reply.Content)
	if jobs, err := domain.ParseJobs(reply.Content); err == nil {
		if raw, err := json.Marshal(domain.JobList{Jobs: jobs}); err == nil {
			s.RawJobText = string(raw)
		}
	}
	s.Outcome = domain.OutcomeDirect
	return s, nil
}

// MinSteps is the step ceiling a run needs to exhaust maxRetries synthesis
// attempts and still reach the rejected terminal state: the agent, a page read
// and the planner, then one write and one evaluation per attempt.
func MinSteps(maxRetries int) int {
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	return 2*(maxRetries+1) + 4
}

// Build assembles the job discovery graph.
//
//	agent -> jobTools -> agent
//	agent -> filterer -> formatter -> end
//	agent -> codePlanner <-> webTools
//	codePlanner -> codeWriter -> codeEval -> codeWriter | end
//
// Without an explicit graph.WithMaxSteps the ceiling grows with MaxRetries; an
// explicit ceiling below MinSteps is rejected.
func Build(deps Deps, cfg Config, opts ...graph.Option) (*graph.Graph, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	logger := deps.logger()
	n := &nodes{deps: deps, cfg: cfg, logger: logger}

	need := MinSteps(cfg.MaxRetries)
	base := []graph.Option{
		graph.WithMaxSteps(max(graph.DefaultMaxSteps, need)),
		graph.WithLogger(logger),
		graph.WithLifecycleHooks(deps.Hooks),
	}
	g := graph.New(append(base, opts...)...)
	if g.MaxSteps() < need {
		return nil, fmt.Errorf("workflow: step ceiling %d is below the %d steps %d retries may take", g.MaxSteps(), need, cfg.MaxRetries)
	}

	g.AddNode(routers.NodeAgent, n.agent)
	g.AddNode(routers.NodeJobTools, n.tools(routers.NodeJobTools, domain.ToolGroupJobs, true))
	g.AddNode(routers.NodeCodePlanner, n.codePlanner)
	g.AddNode(routers.NodeWebTools, n.tools(routers.NodeWebTools, domain.ToolGroupWeb, false))
	g.AddNode(routers.NodeCodeWriter, n.codeWriter)
	g.AddNode(routers.NodeCodeEval, n.codeEval)
	g.AddNode(routers.NodeFilterer, n.filterer)
	g.AddNode(routers.NodeFormatter, n.formatter)

	g.SetEntryPoint(routers.NodeAgent)
	g.AddConditionalEdge(routers.NodeAgent, routers.Entry,
		routers.NodeJobTools, routers.NodeCodePlanner, routers.NodeFilterer)
	g.AddEdge(routers.NodeJobTools, routers.NodeAgent)
	g.AddEdge(routers.NodeFilterer, routers.NodeFormatter)
	g.AddEdge(routers.NodeFormatter, graph.Terminal)
	g.AddConditionalEdge(routers.NodeCodePlanner, routers.Planning,
		routers.NodeWebTools, routers.NodeCodeWriter)
	g.AddEdge(routers.NodeWebTools, routers.NodeCodePlanner)
	g.AddEdge(routers.NodeCodeWriter, routers.NodeCodeEval)
	g.AddConditionalEdge(routers.NodeCodeEval, routers.Evaluation(cfg.MaxRetries),
		graph.Terminal, routers.NodeCodeWriter)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
